package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/layoutsync/internal/client/collab"
	"github.com/iudanet/layoutsync/internal/models"
)

func runLocalScript(t *testing.T, lines ...string) string {
	t.Helper()
	out, buf := newTestIO(lines...)
	c := New(Options{Collab: collab.DefaultConfig()}, Deps{IO: out})
	require.NoError(t, c.Run(context.Background(), "local", nil))
	return buf.String()
}

func TestLocal_EditAndUndo(t *testing.T) {
	out := runLocalScript(t,
		"add Kitchen 3 0 0",
		"add Kitchen 2 1 1",
		"move Kitchen 5 6",
		"undo",
		"show",
		"quit",
		"show",
	)

	assert.Contains(t, out, `✓ Added "Kitchen"`)
	assert.Contains(t, out, `✓ Added "Kitchen 2"`)
	assert.Contains(t, out, "✓ undo applied")
	// после undo перемещение отменено
	assert.Regexp(t, `Kitchen\s+3\.00\s+0\.00\s+0\.00`, out)
	assert.Contains(t, out, "Kitchen 2")
}

func TestLocal_Errors(t *testing.T) {
	out := runLocalScript(t,
		"redo",
		"rm Nowhere",
		"add Hall -1 0 0",
		"add Hall x 0 0",
		"save",
		"frobnicate",
		`add "Open`,
	)

	assert.Contains(t, out, "Nothing to redo.")
	assert.Contains(t, out, "room not found")
	assert.Contains(t, out, "Error: invalid number \"x\"")
	assert.Contains(t, out, "save needs a project session")
	assert.Contains(t, out, `unknown command "frobnicate"`)
	assert.Contains(t, out, "unterminated quote")
}

func TestLocal_QuotedNamesAndExtra(t *testing.T) {
	out := runLocalScript(t,
		`add "Living room" 5 1 2`,
		`set "Living room" color=blue`,
		`set "Living room" rotationY=90 scale=1.5`,
		"status",
	)

	assert.Contains(t, out, `✓ Added "Living room"`)
	assert.Contains(t, out, `✓ Updated "Living room"`)
	assert.Contains(t, out, "Project: (local)")
	assert.Contains(t, out, "Undo/redo depth: 3/0")
}

func TestLocal_ExportLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	out := runLocalScript(t,
		"add Hall 2 0 0",
		"export "+path,
		"rm Hall",
		"show",
		"load "+path,
		"show",
	)

	assert.Contains(t, out, "✓ Layout written to "+path)
	assert.Contains(t, out, "No rooms.")
	assert.Contains(t, out, "✓ Loaded 1 room(s)")
	assert.Regexp(t, `Hall\s+2\.00`, out)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		wantErr bool
	}{
		{name: "plain", in: "add Hall 2 0 0", want: []string{"add", "Hall", "2", "0", "0"}},
		{name: "double quotes", in: `rm "Living room"`, want: []string{"rm", "Living room"}},
		{name: "single quotes", in: `rm 'Bed 2'`, want: []string{"rm", "Bed 2"}},
		{name: "extra spaces", in: "  undo\t ", want: []string{"undo"}},
		{name: "empty quoted", in: `set Hall note ""`, want: []string{"set", "Hall", "note", ""}},
		{name: "blank", in: "   ", want: nil},
		{name: "unterminated", in: `add "Hall`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tokenize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPatch(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, p models.RoomPatch)
		wantErr string
	}{
		{
			name: "numeric fields",
			args: []string{"scale=1.5", "x=2"},
			check: func(t *testing.T, p models.RoomPatch) {
				require.NotNil(t, p.Scale)
				require.NotNil(t, p.X)
				assert.Equal(t, 1.5, *p.Scale)
				assert.Equal(t, 2.0, *p.X)
				assert.Nil(t, p.Y)
			},
		},
		{
			name: "json extra",
			args: []string{`tags=["a","b"]`},
			check: func(t *testing.T, p models.RoomPatch) {
				assert.JSONEq(t, `["a","b"]`, string(p.Extra["tags"]))
			},
		},
		{
			name: "string extra",
			args: []string{"color=red", "floor=2"},
			check: func(t *testing.T, p models.RoomPatch) {
				assert.Equal(t, json.RawMessage(`"red"`), p.Extra["color"])
				assert.Equal(t, json.RawMessage(`2`), p.Extra["floor"])
			},
		},
		{name: "missing equals", args: []string{"x"}, wantErr: "expected <field>=<value>"},
		{name: "bad number", args: []string{"x=left"}, wantErr: "invalid number"},
		{name: "bad size", args: []string{"size=0"}, wantErr: "size"},
		{name: "rename", args: []string{"name=Other"}, wantErr: "cannot be renamed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := buildPatch("Hall", tt.args)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Hall", p.Name)
			tt.check(t, p)
		})
	}
}
