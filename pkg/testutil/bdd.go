package testutil

import "testing"

// Given, When, Then and And nest subtests so a failure path reads as a
// scenario, for example "Given_a_handler/When_it_is_called/Then_it_answers".
func Given(t *testing.T, desc string, fn func(t *testing.T)) { step(t, "Given", desc, fn) }

func When(t *testing.T, desc string, fn func(t *testing.T)) { step(t, "When", desc, fn) }

func Then(t *testing.T, desc string, fn func(t *testing.T)) { step(t, "Then", desc, fn) }

func And(t *testing.T, desc string, fn func(t *testing.T)) { step(t, "And", desc, fn) }

func step(t *testing.T, keyword, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run(keyword+" "+desc, fn)
}
