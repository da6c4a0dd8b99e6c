package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"pricing-agent/pkg/auth"
)

// hashPassword reads one password line from in and writes its bcrypt digest,
// ready to be used as the secret of a PRICING_USER_* credential.
func hashPassword(in io.Reader, out io.Writer) error {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errors.New("empty password")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}
