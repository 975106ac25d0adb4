// Copyright (c) 2024 RoseLoverX

// Interactive front end for the toolkit: mode 1 factors an integer, mode 2
// resolves a discrete logarithm as an equivalence class.
package main

import (
	"bufio"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/amarnathcjd/ntheory"
)

func readLine(r *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func readInteger(r *bufio.Reader, prompt string) (*big.Int, error) {
	s, err := readLine(r, prompt)
	if err != nil {
		return nil, err
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer input: %q", s)
	}
	return n, nil
}

func formatFactors(factors []ntheory.Factor) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range factors {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "(%s, %d)", f.Prime.String(), f.Exp)
	}
	b.WriteByte(']')
	return b.String()
}

func run() error {
	in := bufio.NewReader(os.Stdin)

	fmt.Println("Enter 1 for prime factorization, 2 for discrete log:")
	mode, err := readLine(in, "")
	if err != nil {
		return err
	}

	switch mode {
	case "1":
		n, err := readInteger(in, "Enter n: ")
		if err != nil {
			return err
		}
		factors, err := ntheory.Factorize(n)
		if err != nil {
			return err
		}
		fmt.Println(formatFactors(factors))
	case "2":
		g, err := readInteger(in, "Enter g: ")
		if err != nil {
			return err
		}
		h, err := readInteger(in, "Enter h: ")
		if err != nil {
			return err
		}
		n, err := readInteger(in, "Enter n: ")
		if err != nil {
			return err
		}
		e, p, err := ntheory.DiscreteLog(g, h, n)
		if err != nil {
			return err
		}
		if e == nil {
			fmt.Println("Discrete log does not exist")
			return nil
		}
		fmt.Printf("Discrete log result: %s\n + %sk\n", e.String(), p.String())
	default:
		fmt.Println("Invalid choice. Please enter 1 or 2.")
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
