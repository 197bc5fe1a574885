// Package main provides the grb sparse linear algebra CLI.
package main

import (
	"fmt"
	"os"

	"github.com/grb-go/grb/internal/serialization"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("grb sparse linear algebra %s\n", version)
			return
		case "info":
			if len(os.Args) < 3 {
				fmt.Fprintln(os.Stderr, "usage: grb info <file.grb>")
				os.Exit(1)
			}
			if err := info(os.Args[2]); err != nil {
				fmt.Fprintf(os.Stderr, "grb: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Println("grb - GraphBLAS-style sparse linear algebra for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version          Show version")
	fmt.Println("  info <file.grb>  Describe the tensors in a .grb file")
}

// info prints the header of a .grb file.
func info(path string) error {
	h, err := serialization.ReadHeader(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s (format v%d, written by grb %s)\n", path, h.FormatVersion, h.GrbVersion)
	fmt.Printf("created: %s\n", h.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	for _, meta := range h.Tensors {
		nnz := int64(0)
		for _, sec := range meta.Sections {
			if sec.Role == serialization.SectionValues {
				nnz = sec.Count
			}
		}
		fmt.Printf("  %-20s %s  sizes=%v order=%v kinds=%v nnz=%d\n",
			meta.Name, meta.ValueType, meta.Sizes, meta.DimOrder, meta.DimKinds, nnz)
	}
	for k, v := range h.Metadata {
		fmt.Printf("  meta %s=%s\n", k, v)
	}
	return nil
}
