package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/dshills/keyweave/internal/engine"
	"github.com/dshills/keyweave/internal/keycode"
)

func newLayersCmd(opts *globalOptions) *cobra.Command {
	var only string

	cmd := &cobra.Command{
		Use:   "layers <keyboard-file>",
		Short: "Print the keymap layer by layer",
		Long: `Print every layer of a keyboard as a grid of keycodes.

Transparent keys are shown as a dot. Layer, tap dance and custom keycodes
are shown by name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := opts.loader().Load(args[0])
			if err != nil {
				report(cmd.OutOrStdout(), nil, err)
				return errInvalidKeyboard
			}

			cfg := &kb.Engine
			for i := 0; i < cfg.Keymap.Len(); i++ {
				if only != "" && !strings.EqualFold(only, cfg.Keymap.Name(i)) && only != strconv.Itoa(i) {
					continue
				}
				printLayer(cmd.OutOrStdout(), cfg, i)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&only, "layer", "l", "", "Print only this layer (name or index)")
	return cmd
}

func printLayer(w io.Writer, cfg *engine.Config, idx int) {
	km := cfg.Keymap
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%d %s", idx, km.Name(idx))))

	headers := make([]string, km.Cols)
	for c := range headers {
		headers[c] = strconv.Itoa(c)
	}
	rows := make([][]string, km.Rows)
	for r, keys := range km.Layers[idx].Keys {
		rows[r] = make([]string, len(keys))
		for c, kc := range keys {
			rows[r][c] = keyLabel(kc, cfg)
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return cellStyle.Faint(true)
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w)
}

// keyLabel returns a short display form of kc with layer, dance and
// custom references replaced by their names.
func keyLabel(kc keycode.Keycode, cfg *engine.Config) string {
	switch kc.Kind {
	case keycode.KindNone:
		return ""
	case keycode.KindTransparent:
		return "·"
	case keycode.KindMomentary, keycode.KindToggle, keycode.KindTo, keycode.KindDefault, keycode.KindOneShotLayer:
		fn, _, _ := strings.Cut(kc.String(), "(")
		return fn + "(" + cfg.Keymap.Name(int(kc.Layer)) + ")"
	case keycode.KindTapDance:
		if id := int(kc.ID); id < len(cfg.Dances) && cfg.Dances[id].Name != "" {
			return "TD(" + cfg.Dances[id].Name + ")"
		}
	case keycode.KindCustom:
		if id := int(kc.ID); id < len(cfg.Customs) && cfg.Customs[id].Name != "" {
			return cfg.Customs[id].Name
		}
	}
	return strings.ReplaceAll(kc.String(), "KC_", "")
}
