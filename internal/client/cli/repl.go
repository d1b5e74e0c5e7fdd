package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iudanet/layoutsync/internal/client/collab"
	"github.com/iudanet/layoutsync/internal/client/history"
	"github.com/iudanet/layoutsync/internal/models"
	"github.com/iudanet/layoutsync/internal/validation"
)

const replHelp = `Commands:
  add <name> <size> <x> <y>            Add a room (taken names get a numeric suffix)
  move <name> <x> <y> [rotY] [scale]   Move a room; omitted values are kept
  set <name> <field>=<value>...        Update fields (size, x, y, rotationY, scale or custom)
  rm <name>                            Remove a room
  undo | redo                          Navigate history
  cursor <x> <y> <width> <height>      Report pointer position in pixels
  load <file> | export <file>          Replace the layout from JSON / write it to JSON
  save                                 Ask the server to save the project
  show | who | pending | status        Inspect layout, participants, unacked ops, session
  resend                               Retransmit unacknowledged operations
  help | quit`

// Commands returns the REPL command names for terminal completion.
func Commands() []string {
	return []string{
		"add", "move", "set", "rm", "undo", "redo", "cursor", "load", "export",
		"save", "show", "who", "pending", "resend", "status", "help", "quit",
	}
}

// execute выполняет одну строку REPL
func (c *Cli) execute(ed Editor, text string) error {
	args, err := tokenize(text)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	cmd, args := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "help", "?":
		c.io.Println(replHelp)
		return nil
	case "quit", "exit", "q":
		return errQuit
	case "add":
		return c.cmdAdd(ed, args)
	case "move":
		return c.cmdMove(ed, args)
	case "set":
		return c.cmdSet(ed, args)
	case "rm", "remove", "delete":
		return c.cmdRemove(ed, args)
	case "undo":
		return c.cmdHistory(ed.Undo, "undo", history.ErrNothingToUndo)
	case "redo":
		return c.cmdHistory(ed.Redo, "redo", history.ErrNothingToRedo)
	case "cursor":
		return c.cmdCursor(ed, args)
	case "load":
		return c.cmdLoad(ed, args)
	case "export":
		return c.cmdExport(ed, args)
	case "save":
		if err := ed.RequestSave(); err != nil {
			if errors.Is(err, collab.ErrStandalone) {
				return fmt.Errorf("save needs a project session")
			}
			return err
		}
		c.io.Println("Save requested.")
		return nil
	case "show", "ls":
		c.printLayout(ed.Layout())
		return nil
	case "who":
		c.printParticipants(ed.Participants())
		return nil
	case "pending":
		c.printPending(ed)
		return nil
	case "resend":
		c.io.Printf("Resent %d operation(s).\n", ed.Resend())
		return nil
	case "status":
		c.printStatus(ed)
		return nil
	default:
		return fmt.Errorf("unknown command %q, type 'help'", cmd)
	}
}

func (c *Cli) cmdAdd(ed Editor, args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: add <name> <size> <x> <y>")
	}
	if err := validation.ValidateRoomName(args[0]); err != nil {
		return err
	}
	nums, err := parseFloats(args[1:])
	if err != nil {
		return err
	}
	if err := validation.ValidateSize(nums[0]); err != nil {
		return err
	}

	op, _, err := ed.AddRoom(models.NewRoom(args[0], nums[0], nums[1], nums[2]))
	if err != nil {
		return err
	}
	c.io.Printf("✓ Added %q (op %s)\n", op.Target(), op.OpID)
	return nil
}

func (c *Cli) cmdMove(ed Editor, args []string) error {
	if len(args) < 3 || len(args) > 5 {
		return fmt.Errorf("usage: move <name> <x> <y> [rotationY] [scale]")
	}
	nums, err := parseFloats(args[1:])
	if err != nil {
		return err
	}

	var rot, scale *float64
	if len(nums) > 2 {
		rot = models.Float(nums[2])
	}
	if len(nums) > 3 {
		scale = models.Float(nums[3])
	}

	op, _, err := ed.TransformRoom(args[0], nums[0], nums[1], rot, scale)
	if err != nil {
		return err
	}
	c.io.Printf("✓ Moved %q (op %s)\n", args[0], op.OpID)
	return nil
}

func (c *Cli) cmdSet(ed Editor, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: set <name> <field>=<value> [<field>=<value>...]")
	}
	patch, err := buildPatch(args[0], args[1:])
	if err != nil {
		return err
	}

	op, _, err := ed.UpdateRoom(patch)
	if err != nil {
		return err
	}
	c.io.Printf("✓ Updated %q (op %s)\n", args[0], op.OpID)
	return nil
}

func (c *Cli) cmdRemove(ed Editor, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: rm <name>")
	}
	op, _, err := ed.RemoveRoom(args[0])
	if err != nil {
		return err
	}
	c.io.Printf("✓ Removed %q (op %s)\n", args[0], op.OpID)
	return nil
}

func (c *Cli) cmdHistory(step func() (bool, error), name string, empty error) error {
	applied, err := step()
	switch {
	case errors.Is(err, empty):
		c.io.Printf("Nothing to %s.\n", name)
		return nil
	case err != nil:
		return err
	case applied:
		c.io.Printf("✓ %s applied\n", name)
	default:
		c.io.Printf("%s requested from server\n", name)
	}
	return nil
}

func (c *Cli) cmdCursor(ed Editor, args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: cursor <x> <y> <width> <height>")
	}
	nums, err := parseFloats(args)
	if err != nil {
		return err
	}
	ed.PointerMove(nums[0], nums[1], nums[2], nums[3])
	return nil
}

func (c *Cli) cmdLoad(ed Editor, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: load <file>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read layout file: %w", err)
	}
	var l models.Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return err
	}
	ed.LoadLayout(l)
	c.io.Printf("✓ Loaded %d room(s)\n", len(l.Rooms))
	return nil
}

func (c *Cli) cmdExport(ed Editor, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: export <file>")
	}
	data, err := json.MarshalIndent(ed.Layout(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode layout: %w", err)
	}
	if err := os.WriteFile(args[0], data, 0o600); err != nil {
		return fmt.Errorf("failed to write layout file: %w", err)
	}
	c.io.Printf("✓ Layout written to %s\n", args[0])
	return nil
}

func (c *Cli) printLayout(l models.Layout) {
	if len(l.Rooms) == 0 {
		c.io.Println("No rooms.")
		return
	}
	c.io.Printf("%-20s %8s %8s %8s %8s %6s\n", "NAME", "SIZE", "X", "Y", "ROT", "SCALE")
	for _, r := range l.Rooms {
		c.io.Printf("%-20s %8.2f %8.2f %8.2f %8.2f %6.2f\n", r.Name, r.Size, r.X, r.Y, r.RotationY, r.Scale)
	}
}

func (c *Cli) printParticipants(ps []models.Participant) {
	if len(ps) == 0 {
		c.io.Println("No other participants.")
		return
	}
	for _, p := range ps {
		line := fmt.Sprintf("  %s (%s)", p.DisplayName, p.UserID)
		if p.Cursor != nil {
			cur := p.Cursor.Clamped()
			line += fmt.Sprintf(" cursor %.2f,%.2f", cur.X, cur.Y)
		}
		c.io.Println(line)
	}
}

func (c *Cli) printPending(ed Editor) {
	infos := ed.Pending()
	if len(infos) == 0 {
		c.io.Println("All operations acknowledged.")
		return
	}
	for _, info := range infos {
		state := "sent"
		if info.Queued {
			state = "queued"
		}
		c.io.Printf("  %s %-8s %-20s %s retries=%d\n",
			info.OpID, info.Op.Kind, info.Op.Target(), state, info.Retries)
	}
}

func (c *Cli) printStatus(ed Editor) {
	st := ed.Status()
	project := ed.ProjectID()
	if project == "" {
		project = "(local)"
	}
	c.io.Printf("Project: %s\n", project)
	c.io.Printf("Mode: %s (connection %s)\n", st.Mode, st.State)
	if st.ReconnectDelay > 0 {
		c.io.Printf("Reconnecting in %s\n", st.ReconnectDelay.Round(time.Millisecond))
	}
	c.io.Printf("Node: %s\n", st.NodeID)
	c.io.Printf("Participants: %d\n", st.Participants)
	c.io.Printf("Pending ops: %d\n", len(st.Pending))
	c.io.Printf("Undo/redo depth: %d/%d\n", st.UndoDepth, st.RedoDepth)
	if !st.LastSync.IsZero() {
		c.io.Printf("Last sync: %s\n", st.LastSync.Format(time.RFC3339))
	}
	if !st.LastAutosave.IsZero() {
		c.io.Printf("Last autosave: %s\n", st.LastAutosave.Format(time.RFC3339))
	}
	for _, rec := range st.RecentOps {
		c.io.Printf("  recent: %s %s by %s\n", rec.Op.Kind, rec.Op.Target(), displayOr(rec.Actor, rec.From))
	}
}

// buildPatch строит патч из присваиваний field=value. Неизвестные поля уходят
// в Extra: значение разбирается как JSON, иначе передается строкой.
func buildPatch(name string, assignments []string) (models.RoomPatch, error) {
	patch := models.RoomPatch{Name: name}
	for _, a := range assignments {
		field, value, ok := strings.Cut(a, "=")
		if !ok || field == "" {
			return patch, fmt.Errorf("expected <field>=<value>, got %q", a)
		}
		if err := setField(&patch, field, value); err != nil {
			return patch, err
		}
	}
	return patch, nil
}

func setField(patch *models.RoomPatch, field, value string) error {
	switch field {
	case "size", "x", "y", "rotationY", "scale":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", value)
		}
		switch field {
		case "size":
			if err := validation.ValidateSize(v); err != nil {
				return err
			}
			patch.Size = &v
		case "x":
			patch.X = &v
		case "y":
			patch.Y = &v
		case "rotationY":
			patch.RotationY = &v
		case "scale":
			patch.Scale = &v
		}
	case "name":
		return fmt.Errorf("rooms cannot be renamed, remove and add instead")
	default:
		raw := json.RawMessage(value)
		if !json.Valid(raw) {
			quoted, err := json.Marshal(value)
			if err != nil {
				return fmt.Errorf("failed to encode value: %w", err)
			}
			raw = quoted
		}
		if patch.Extra == nil {
			patch.Extra = map[string]json.RawMessage{}
		}
		patch.Extra[field] = raw
	}
	return nil
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = v
	}
	return out, nil
}

// tokenize делит строку по пробелам, учитывая кавычки: add "Living room" 5 0 0
func tokenize(s string) ([]string, error) {
	var (
		out   []string
		cur   strings.Builder
		quote rune
		have  bool
	)
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			have = true
		case r == ' ' || r == '\t':
			if have {
				out = append(out, cur.String())
				cur.Reset()
				have = false
			}
		default:
			cur.WriteRune(r)
			have = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote")
	}
	if have {
		out = append(out, cur.String())
	}
	return out, nil
}
