package git

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeRenamed  ChangeKind = "renamed"
)

type ChangedFile struct {
	Path    string
	OldPath string // set for renames
	Kind    ChangeKind
}

// ChangedFiles runs git diff --name-status against the given ref and returns
// the changed paths. Untracked state is not reported; the incremental sync
// falls back to content hashes for anything git cannot see.
func ChangedFiles(baseRef string) ([]ChangedFile, error) {
	cmd := exec.Command("git", "diff", "--name-status", baseRef)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w", err)
	}

	return parseNameStatus(output)
}

func parseNameStatus(output []byte) ([]ChangedFile, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	var changes []ChangedFile

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\n")
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}

		status := fields[0]
		switch {
		case strings.HasPrefix(status, "A"):
			changes = append(changes, ChangedFile{Path: fields[1], Kind: ChangeAdded})
		case strings.HasPrefix(status, "M"):
			changes = append(changes, ChangedFile{Path: fields[1], Kind: ChangeModified})
		case strings.HasPrefix(status, "D"):
			changes = append(changes, ChangedFile{Path: fields[1], Kind: ChangeDeleted})
		case strings.HasPrefix(status, "R"):
			if len(fields) < 3 {
				continue
			}
			changes = append(changes, ChangedFile{Path: fields[2], OldPath: fields[1], Kind: ChangeRenamed})
		default:
			// Copies and mode changes are treated as modifications.
			changes = append(changes, ChangedFile{Path: fields[len(fields)-1], Kind: ChangeModified})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse git diff output: %w", err)
	}

	return changes, nil
}
