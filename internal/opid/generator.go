// Package opid генерирует идентификаторы операций, уникальные в пределах сессии клиента.
package opid

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Prefix общий префикс всех идентификаторов операций
const Prefix = "op_"

// Generator выдает идентификаторы вида op_<node>_<counter>.
// node - первые 8 hex-символов UUID, выбранного при создании генератора,
// counter - монотонно возрастающий счетчик.
type Generator struct {
	nodeID  string     // идентификатор узла (клиента)
	counter uint64     // монотонно возрастающий счетчик
	mu      sync.Mutex // мьютекс для потокобезопасности
}

// NewGenerator создает генератор со случайным идентификатором узла (UUID)
func NewGenerator() *Generator {
	return NewGeneratorWithNodeID(uuid.New().String())
}

// NewGeneratorWithNodeID создает генератор с заданным идентификатором узла.
// Используется для тестирования.
func NewGeneratorWithNodeID(nodeID string) *Generator {
	node := strings.ReplaceAll(nodeID, "-", "")
	if len(node) > 8 {
		node = node[:8]
	}
	return &Generator{nodeID: node}
}

// Next увеличивает счетчик и возвращает новый идентификатор
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.counter++
	return fmt.Sprintf("%s%s_%d", Prefix, g.nodeID, g.counter)
}

// NodeID возвращает идентификатор узла
func (g *Generator) NodeID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.nodeID
}

// Count returns how many ids were issued so far.
func (g *Generator) Count() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.counter
}
