// util/json.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DuplicateJSONKey records an object key that appears more than once;
// encoding/json silently keeps the last value.
type DuplicateJSONKey struct {
	Path string // dotted path to the enclosing object
	Key  string
}

// FindDuplicateJSONKeys returns the duplicated keys in data. Malformed
// JSON yields whatever was found before the error.
func FindDuplicateJSONKeys(data []byte) []DuplicateJSONKey {
	dec := json.NewDecoder(bytes.NewReader(data))
	var dups []DuplicateJSONKey

	var walk func(path []string) error
	walk = func(path []string) error {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		d, ok := tok.(json.Delim)
		if !ok {
			return nil
		}

		switch d {
		case '{':
			seen := make(map[string]bool)
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return err
				}
				key, _ := kt.(string)
				if seen[key] {
					dups = append(dups, DuplicateJSONKey{Path: strings.Join(path, "."), Key: key})
				}
				seen[key] = true
				if err := walk(append(path, key)); err != nil {
					return err
				}
			}
		case '[':
			for dec.More() {
				if err := walk(path); err != nil {
					return err
				}
			}
		}
		_, err = dec.Token() // closing delimiter
		return err
	}
	_ = walk(nil)

	return dups
}

// UnmarshalJSONBytes decodes b into out, rejecting fields that out
// doesn't have. Syntax and type errors report the line and character
// where they occurred.
func UnmarshalJSONBytes[T any](b []byte, out *T) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	err := dec.Decode(out)
	if err == nil {
		return nil
	}

	decodeOffset := func(offset int64) (line, char int) {
		line, char = 1, 1
		for i := 0; i < int(offset) && i < len(b); i++ {
			if b[i] == '\n' {
				line++
				char = 1
			} else {
				char++
			}
		}
		return
	}

	var serr *json.SyntaxError
	var terr *json.UnmarshalTypeError
	if errors.As(err, &serr) {
		line, char := decodeOffset(serr.Offset)
		return fmt.Errorf("Error at line %d, character %d: %v", line, char, serr)
	} else if errors.As(err, &terr) {
		line, char := decodeOffset(terr.Offset)
		return fmt.Errorf("Error at line %d, character %d: %s value for %s invalid for type %s",
			line, char, terr.Value, terr.Field, terr.Type.String())
	}
	return err
}

// CheckJSON decodes contents into out, recording decode errors and any
// duplicated keys with e.
func CheckJSON[T any](contents []byte, out *T, e *ErrorLogger) {
	for _, dup := range FindDuplicateJSONKeys(contents) {
		if dup.Path != "" {
			e.Push(dup.Path)
		}
		e.ErrorString("%q is specified more than once", dup.Key)
		if dup.Path != "" {
			e.Pop()
		}
	}
	if err := UnmarshalJSONBytes(contents, out); err != nil {
		e.Error(err)
	}
}
