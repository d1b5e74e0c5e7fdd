// Package history реализует undo/redo: локальный стек снимков layout без сессии
// и делегирование серверу при активной сессии.
package history

import "github.com/iudanet/layoutsync/internal/models"

// DefaultCapacity максимальная глубина каждого стека
const DefaultCapacity = 100

// Stack два ограниченных стека снимков: undo и redo.
// Снимки хранятся глубокими копиями. Не потокобезопасен, защищается Coordinator.
type Stack struct {
	undo     []models.Layout
	redo     []models.Layout
	capacity int
}

// NewStack creates a stack pair; capacity <= 0 means DefaultCapacity.
func NewStack(capacity int) *Stack {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Stack{capacity: capacity}
}

// Record сохраняет состояние до изменения и очищает redo
func (s *Stack) Record(prev models.Layout) {
	s.undo = push(s.undo, prev.Clone(), s.capacity)
	s.redo = nil
}

// Undo возвращает предыдущее состояние, перекладывая current в redo
func (s *Stack) Undo(current models.Layout) (models.Layout, bool) {
	if len(s.undo) == 0 {
		return current, false
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = push(s.redo, current.Clone(), s.capacity)
	return prev, true
}

// Redo mirrors Undo.
func (s *Stack) Redo(current models.Layout) (models.Layout, bool) {
	if len(s.redo) == 0 {
		return current, false
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = push(s.undo, current.Clone(), s.capacity)
	return next, true
}

// Depths returns the sizes of the undo and redo stacks.
func (s *Stack) Depths() (undo, redo int) {
	return len(s.undo), len(s.redo)
}

// Clear drops both stacks.
func (s *Stack) Clear() {
	s.undo = nil
	s.redo = nil
}

// push добавляет элемент, вытесняя самый старый при переполнении
func push(stack []models.Layout, l models.Layout, capacity int) []models.Layout {
	if len(stack) >= capacity {
		copy(stack, stack[len(stack)-capacity+1:])
		stack = stack[:capacity-1]
	}
	return append(stack, l)
}
