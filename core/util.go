package core

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// UniqueStrings cleans `ss` and drops blanks and duplicates, keeping the first occurrence order.
func UniqueStrings(ss []string) []string {
	if ss == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		s = CleanString(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func ContainsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// Getwd tries to find the project root, i.e. the closest parent directory holding a go.mod file.
// go-test changes the working directory to the test package being run during tests.
func Getwd() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir, nil
		}
		newDir := filepath.Dir(currDir)
		if newDir == currDir {
			return wd, errors.New("project root not found")
		}
		currDir = newDir
	}
}
