package main

import (
	"fmt"
	"io"

	"github.com/wippyai/lean-runtime/config"
	"github.com/wippyai/lean-runtime/examples/maparray"
	"github.com/wippyai/lean-runtime/object"
	"github.com/wippyai/lean-runtime/runtime"
)

// runDemo runs the demo named in cfg and writes its output to w.
func runDemo(w io.Writer, rt *runtime.Runtime, lib *maparray.Library, cfg *config.Config) error {
	switch cfg.Demo.Name {
	case "", "map-array":
		return mapArrayDemo(w, rt, lib, cfg)
	case "make-string":
		return makeStringDemo(w, rt, cfg)
	case "threads":
		return threadsDemo(w, rt, cfg)
	}
	return fmt.Errorf("unknown demo %q", cfg.Demo.Name)
}

func makeStringDemo(w io.Writer, rt *runtime.Runtime, cfg *config.Config) error {
	s := object.NewString(rt, cfg.Demo.Text).Push('!')
	defer s.Release()
	_, err := fmt.Fprintln(w, s)
	return err
}

func mapArrayDemo(w io.Writer, rt *runtime.Runtime, lib *maparray.Library, cfg *config.Config) error {
	opts := lib.NewMapOptions(rt, cfg.Demo.Addend, cfg.Demo.Multiplicand)
	input := cfg.Input()
	fmt.Fprintf(w, "MapOptions instance: %s\n", opts)
	fmt.Fprintf(w, "Input array: %v\n", input)

	out := lib.MyMap(rt, opts, input)
	defer out.Release()
	_, err := fmt.Fprintf(w, "Output array: %v\n", out.Values())
	return err
}

// threadsDemo builds one string per secondary thread and prints them in
// thread order.
func threadsDemo(w io.Writer, rt *runtime.Runtime, cfg *config.Config) error {
	results := make([]string, cfg.Demo.Threads)
	err := runtime.Scoped(rt, func(s *runtime.Scope) error {
		for i := range results {
			s.Go(runtime.ThreadOptions{
				Name:   fmt.Sprintf("worker-%d", i),
				Labels: map[string]string{"demo": "threads"},
			}, func(child *runtime.Runtime) error {
				str := object.NewString(child, fmt.Sprintf("%s from thread %d", cfg.Demo.Text, i)).Push('!')
				defer str.Release()
				results[i] = str.String()
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, r := range results {
		if _, err := fmt.Fprintln(w, r); err != nil {
			return err
		}
	}
	return nil
}
