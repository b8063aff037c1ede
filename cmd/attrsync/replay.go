package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/attrsync/pkg/host/memhost"
	"github.com/vango-dev/attrsync/pkg/host/patchhost"
	"github.com/vango-dev/attrsync/pkg/protocol"
	"github.com/vango-dev/attrsync/pkg/reconcile"
)

func replayCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Replay a scenario against an in-memory element",
		Long: `Replay a scenario against an in-memory element and print the
mutation calls each step makes, followed by the final attributes.

Examples:
  attrsync replay testdata/input.yaml
  attrsync replay --log-level=debug scenario.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(cmd.OutOrStdout(), flags, args[0], newMemTarget)
		},
	}
}

func encodeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "encode <scenario.yaml>",
		Short: "Print the patch frames a remote client would receive",
		Long: `Replay a scenario against a remote element and print each step's
patches frame as hex, with the decoded patches below it.

Focus, blur and class edits are delivered as client reports.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(cmd.OutOrStdout(), flags, args[0], newPatchTarget)
		},
	}
}

func runFile(w io.Writer, flags *globalFlags, path string, newTarget func(tag string) target) error {
	cfg, err := flags.loadConfig()
	if err != nil {
		return err
	}
	sc, err := LoadScenario(path)
	if err != nil {
		return err
	}

	opts := append(cfg.ReconcileOptions(), sc.Options()...)
	opts = append(opts, reconcile.WithLogger(newLogger(cfg)))
	return runScenario(w, sc, newTarget(sc.Tag), opts...)
}

// target is the element a scenario runs against.
type target interface {
	node() reconcile.Node
	host() any
	setFocus(focused bool) error
	editClass(add, remove []string) error
	flush(w io.Writer) error
	summary(w io.Writer)
}

// runScenario applies every step in order. Rejected attribute values are
// reported and the run continues; configuration errors stop it.
func runScenario(w io.Writer, sc *Scenario, t target, opts ...reconcile.Option) error {
	r := reconcile.New(t.node(), t.host(), opts...)

	for i, step := range sc.Steps {
		if step.Name != "" {
			fmt.Fprintf(w, "step %d: %s\n", i+1, step.Name)
		} else {
			fmt.Fprintf(w, "step %d\n", i+1)
		}

		if step.Focus || step.Blur {
			if err := t.setFocus(step.Focus); err != nil {
				return err
			}
		}
		if len(step.AddClass) > 0 || len(step.RemoveClass) > 0 {
			if err := t.editClass(step.AddClass, step.RemoveClass); err != nil {
				return err
			}
		}

		if step.Attrs != nil {
			if err := r.Update(reconcile.Attrs(step.Attrs)); err != nil {
				if !reconcile.IsInvalidInputError(err) {
					return err
				}
				fmt.Fprintf(w, "  rejected: %s\n", err)
			} else if stats := r.LastUpdate(); stats.Suppressed > 0 {
				fmt.Fprintf(w, "  suppressed: %d\n", stats.Suppressed)
			}
		}

		if err := t.flush(w); err != nil {
			return err
		}
	}

	t.summary(w)
	return nil
}

type memTarget struct {
	h  *memhost.Host
	el *memhost.Element
}

func newMemTarget(tag string) target {
	return &memTarget{h: memhost.New(), el: memhost.NewElement(tag)}
}

func (t *memTarget) node() reconcile.Node { return t.el }
func (t *memTarget) host() any            { return t.h }

func (t *memTarget) setFocus(focused bool) error {
	if focused {
		t.el.Focus()
	} else {
		t.el.Blur()
	}
	return nil
}

func (t *memTarget) editClass(add, remove []string) error {
	for _, tok := range add {
		t.el.AddClass(tok)
	}
	for _, tok := range remove {
		t.el.RemoveClass(tok)
	}
	return nil
}

func (t *memTarget) flush(w io.Writer) error {
	muts := t.h.Mutations()
	if len(muts) == 0 {
		fmt.Fprintln(w, "  (no mutations)")
	}
	for _, m := range muts {
		fmt.Fprintf(w, "  %s\n", m)
	}
	t.h.ResetMutations()
	return nil
}

func (t *memTarget) summary(w io.Writer) {
	attrs := t.el.Attributes()
	fmt.Fprintln(w, "attributes:")
	for _, name := range t.el.AttributeNames() {
		fmt.Fprintf(w, "  %s=%q\n", name, attrs[name])
	}
	for _, name := range []string{"checked", "selected", "value"} {
		if v, ok := t.el.Property(name); ok {
			fmt.Fprintf(w, "  .%s=%#v\n", name, v)
		}
	}
}

// patchTargetHID is the hydration ID the encode command uses.
const patchTargetHID = "h1"

type patchTarget struct {
	h  *patchhost.Host
	el *patchhost.Element
}

func newPatchTarget(tag string) target {
	h := patchhost.New()
	el, _ := h.Element(patchTargetHID, tag)
	return &patchTarget{h: h, el: el}
}

func (t *patchTarget) node() reconcile.Node { return t.el }
func (t *patchTarget) host() any            { return t.h }

func (t *patchTarget) setFocus(focused bool) error {
	typ := protocol.ReportBlur
	if focused {
		typ = protocol.ReportFocus
	}
	return t.h.Apply(protocol.Report{Type: typ, HID: t.el.HID()})
}

func (t *patchTarget) editClass(add, remove []string) error {
	var tokens []string
	for _, tok := range reconcile.Tokens(t.h.TokenSet(t.el)) {
		if !contains(remove, tok) {
			tokens = append(tokens, tok)
		}
	}
	for _, tok := range add {
		if !contains(tokens, tok) {
			tokens = append(tokens, tok)
		}
	}
	return t.h.Apply(protocol.Report{
		Type:  protocol.ReportTokenSet,
		HID:   t.el.HID(),
		Value: strings.Join(tokens, " "),
	})
}

func (t *patchTarget) flush(w io.Writer) error {
	pf := t.h.Flush()
	frame := protocol.NewFrame(protocol.FramePatches, protocol.EncodePatches(pf))
	frame.Flags = protocol.FlagFinal
	data, err := frame.Encode()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "  seq %d: %s\n", pf.Seq, hex.EncodeToString(data))
	for _, p := range pf.Patches {
		fmt.Fprintf(w, "    %s\n", p)
	}
	return nil
}

func (t *patchTarget) summary(w io.Writer) {
	fmt.Fprintf(w, "class: %q\n", t.h.TokenSet(t.el))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
