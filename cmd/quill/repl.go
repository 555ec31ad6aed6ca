package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/lmorg/readline"

	"github.com/quillmath/quill/pkg/runtime"
	"github.com/quillmath/quill/pkg/types"
)

const replHelp = `Enter an expression to evaluate it, or a definition like f(x) = x^2.
Commands:
  :derive <expr>      differentiate with respect to x
  :integrate <expr>   integrate with respect to x
  :roots <expr>       find real roots in x
  :rowreduce <m>      reduced row-echelon form, e.g. :rowreduce [1 2][3 4]
  :echelon <m>        triangular form
  :det <m>            determinant
  :inverse <m>        matrix inverse
  :charpoly <m>       characteristic polynomial
  :precision <n>      set decimal places
  :degrees | :radians set the angle mode
  :save <file>        save the session as YAML
  :help               show this help
  :quit               exit`

// startREPL runs the interactive loop until :quit or EOF.
func startREPL(engine *runtime.Engine, out io.Writer) error {
	rline := readline.NewInstance()
	rline.SetPrompt("quill> ")
	for {
		line, err := rline.Readline()
		if err != nil {
			if err == readline.CtrlC || err == readline.EOF {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == ":quit" || line == ":q" {
			return nil
		}
		if err := dispatch(engine, out, line); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func dispatch(engine *runtime.Engine, out io.Writer, line string) error {
	if !strings.HasPrefix(line, ":") {
		t, err := engine.Evaluate(line)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, t.String())
		return nil
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch cmd {
	case ":help":
		fmt.Fprintln(out, replHelp)
		return nil
	case ":derive":
		t, err := engine.Differentiate(rest, "x")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, t.String())
		return nil
	case ":integrate":
		t, err := engine.Integrate(rest, "x")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, t.String())
		return nil
	case ":roots":
		roots, err := engine.FindRoots(rest, "x")
		if err != nil {
			return err
		}
		parts := make([]string, len(roots))
		for i, r := range roots {
			parts[i] = r.String()
		}
		fmt.Fprintln(out, strings.Join(parts, ", "))
		return nil
	case ":rowreduce":
		m, err := engine.RowReduce(rest)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, m.String())
		return nil
	case ":echelon":
		m, err := engine.Echelon(rest)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, m.String())
		return nil
	case ":det":
		t, err := engine.Determinant(rest)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, t.String())
		return nil
	case ":inverse":
		m, err := engine.Inverse(rest)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, m.String())
		return nil
	case ":charpoly":
		t, err := engine.CharPoly(rest)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, t.String())
		return nil
	case ":precision":
		n, err := strconv.Atoi(rest)
		if err != nil || n <= 0 {
			return fmt.Errorf("precision must be a positive integer")
		}
		engine.SetPrecision(n)
		return nil
	case ":degrees":
		engine.SetAngleMode(types.Degrees)
		return nil
	case ":radians":
		engine.SetAngleMode(types.Radians)
		return nil
	case ":save":
		if rest == "" {
			return fmt.Errorf("usage: :save <file>")
		}
		f, err := os.Create(rest)
		if err != nil {
			return err
		}
		defer f.Close()
		return runtime.Snapshot(engine).Save(f)
	}
	return fmt.Errorf("unknown command %s (try :help)", cmd)
}
