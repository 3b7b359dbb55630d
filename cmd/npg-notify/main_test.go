package main

import (
	"testing"
)

func TestRootCommandWiring(t *testing.T) {
	root := newRootCommand()

	want := map[string]bool{
		"register": false,
		"token":    false,
		"add":      false,
		"run":      false,
		"tasks":    false,
		"config":   false,
	}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}

	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("persistent --config flag not registered")
	}
}

func TestTokenCommandRequiresDescription(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"token"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected error when token description is missing")
	}
}

func TestAddCommandRejectsUnknownEvent(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"add", "--event", "rebooted"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected error for unknown event")
	}
}
