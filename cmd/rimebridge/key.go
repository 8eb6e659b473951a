package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"rimebridge/internal/keytable"
	"rimebridge/internal/marshal"
	"rimebridge/internal/native"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Parse and format Rime key representations",
	}
	cmd.AddCommand(newKeyParseCmd())
	cmd.AddCommand(newKeyFormatCmd())
	cmd.AddCommand(newKeyUnicodeCmd())
	return cmd
}

func newKeyParseCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <repr>...",
		Short: "Parse key representations such as Control+Shift+a",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := keytable.Default()
			out := cmd.OutOrStdout()
			for _, repr := range args {
				ev := marshal.ParseKeyEvent(marshal.DefaultRegistry{}, keys, repr)
				if asJSON {
					data, err := json.Marshal(ev)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, string(data))
					continue
				}
				fmt.Fprintf(out, "%s\tkeycode=0x%x\tmodifier=0x%x\n", ev.Repr, ev.Keycode, ev.Modifier)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON object per key")
	return cmd
}

func newKeyFormatCmd() *cobra.Command {
	var modifiers []string

	cmd := &cobra.Command{
		Use:   "format <keycode|name>",
		Short: "Format a keycode and modifiers as a key representation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := keytable.Default()
			keycode, err := parseKeycode(keys, args[0])
			if err != nil {
				return err
			}
			mask := 0
			for _, name := range modifiers {
				m := marshal.ModifierByName(keys, name)
				if m == 0 {
					return fmt.Errorf("unknown modifier %q", name)
				}
				mask |= m
			}
			fmt.Fprintln(cmd.OutOrStdout(), marshal.FormatKeyEvent(keys, keycode, mask))
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&modifiers, "modifier", "m", nil, "modifier names, e.g. -m Control -m Shift")
	return cmd
}

func newKeyUnicodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unicode <keycode|name>",
		Short: "Print the character a keycode produces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := keytable.Default()
			keycode, err := parseKeycode(keys, args[0])
			if err != nil {
				return err
			}
			cp := marshal.KeyUnicode(keys, keycode)
			if cp == 0 {
				return fmt.Errorf("keycode 0x%x has no printable character", keycode)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "U+%04X\t%c\n", cp, rune(cp))
			return nil
		},
	}
}

// parseKeycode resolves a key name first, so "1" is the digit key. Other
// numbers are taken as keycodes.
func parseKeycode(keys native.KeyTable, s string) (int, error) {
	code := marshal.KeycodeByName(keys, s)
	if code != native.VoidSymbol || strings.EqualFold(s, "VoidSymbol") {
		return code, nil
	}
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int(n), nil
	}
	return 0, fmt.Errorf("unknown key name %q", s)
}
