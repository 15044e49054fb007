// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func invokeCommand(args []string) (*Command, string, error) {
	c := NewCommand()

	c.SilenceUsage = true
	c.SilenceErrors = true

	buf := new(bytes.Buffer)
	c.SetOut(buf)
	c.SetErr(buf)
	c.SetArgs(args)

	err := c.Execute()
	return c, buf.String(), err
}

func TestVersion(t *testing.T) {
	data, err := os.ReadFile("version.txt")
	if err != nil {
		t.Fatalf("failed to read version.txt: %v", err)
	}
	want := strings.TrimSpace(string(data))

	_, got, err := invokeCommand([]string{"--version"})
	if err != nil {
		t.Fatalf("error invoking command: %s", err)
	}
	if !strings.Contains(got, want) {
		t.Errorf("cli did not return correct version: want %q, got %q", want, got)
	}
}

func TestRequiredFlags(t *testing.T) {
	tcs := []struct {
		desc    string
		args    []string
		wantErr string
	}{
		{
			desc:    "missing schema",
			args:    []string{"--dialect", "postgresql", `{"==":[{"var":"id"},1]}`},
			wantErr: "--schema is required",
		},
		{
			desc:    "missing dialect",
			args:    []string{"--schema", "testdata/does-not-exist.yaml", `{"==":[{"var":"id"},1]}`},
			wantErr: "--dialect is required",
		},
	}
	for _, tc := range tcs {
		t.Run(tc.desc, func(t *testing.T) {
			_, _, err := invokeCommand(tc.args)
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("got error %q, want it to contain %q", err.Error(), tc.wantErr)
			}
		})
	}
}

func TestResolveRuleRequiresSomeSource(t *testing.T) {
	c := NewCommand()
	if _, err := c.resolveRule(nil); err == nil {
		t.Fatal("expected an error when no rule source is provided")
	}
}

func TestResolveRulePositional(t *testing.T) {
	c := NewCommand()
	raw, err := c.resolveRule([]string{`{"==":[{"var":"id"},1]}`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"==":[{"var":"id"},1]}` {
		t.Errorf("got %s", raw)
	}
}

func TestRunFullSuccessPath(t *testing.T) {
	_, out, err := invokeCommand([]string{
		"--schema", "testdata/schema.yaml",
		"--dialect", "postgresql",
		`{"and": [{"==": [{"var": "status"}, "active"]}, {"gt": [{"var": "age"}, 18]}]}`,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `\"status\" = $1`) {
		t.Errorf("output missing compiled SQL: %s", out)
	}
	if !strings.Contains(out, `"p1": "active"`) {
		t.Errorf("output missing bound parameter: %s", out)
	}
}

func TestRunRejectsUnreadableSchema(t *testing.T) {
	_, _, err := invokeCommand([]string{
		"--schema", "testdata/does-not-exist.yaml",
		"--dialect", "postgresql",
		`{"==":[{"var":"status"},"x"]}`,
	})
	if err == nil {
		t.Fatal("expected an error for a missing schema file")
	}
	if !strings.Contains(err.Error(), "failed to read schema file") {
		t.Errorf("got error %q", err.Error())
	}
}
