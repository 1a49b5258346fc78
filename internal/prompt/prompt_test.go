// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcluts/personachat/internal/config"
	"github.com/jcluts/personachat/internal/model"
)

var (
	merlin = config.Persona{Name: "Merlin", Description: []string{"Old.", "Wise."}}
	arthur = config.Persona{Name: "Arthur", Description: []string{"Young.", "Brave."}}
)

func TestRender(t *testing.T) {
	values := map[string]string{"a": "x", "b_2": "y"}

	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"plain", "no slots", "no slots"},
		{"empty", "", ""},
		{"slots", "{a}-{b_2}", "x-y"},
		{"repeat", "{a}{a}", "xx"},
		{"escapes", "{{a}} and }}{{", "{a} and }{"},
		{"escaped around slot", "{{{a}}}", "{x}"},
		{"unicode", "héllo {a} ✓", "héllo x ✓"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.tmpl, values)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name   string
		tmpl   string
		slot   string
		reason string
	}{
		{"unknown slot", "hi {nope}", "nope", "unknown slot {nope}"},
		{"unclosed", "hi {a", "", "unbalanced '{'"},
		{"nested open", "hi {a{b}", "", "unbalanced '{'"},
		{"lone close", "hi a}", "", "single '}' encountered"},
		{"empty slot", "hi {}", "", "invalid slot {}"},
		{"positional", "hi {0}", "0", "invalid slot {0}"},
		{"format directive", "hi {a:>5}", "a:>5", "invalid slot {a:>5}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(tt.tmpl, map[string]string{"a": "x"})
			var te *TemplateError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.slot, te.Slot)
			assert.Equal(t, tt.reason, te.Reason)
		})
	}
}

func TestRender_ValuesAreNotReparsed(t *testing.T) {
	got, err := Render("{a}", map[string]string{"a": "{b} }"})
	require.NoError(t, err)
	assert.Equal(t, "{b} }", got)
}

func TestCompose(t *testing.T) {
	is := config.InstructionSet{Instructions: []string{
		"You are {expertName}, {expertDescription}",
		"Scene: {context}",
		"User {userName}: {userDescription}",
	}}

	got, err := Compose(is, merlin, arthur, "A tavern.")
	require.NoError(t, err)
	assert.Equal(t, "You are Merlin, Old. Wise. Scene: A tavern. User Arthur: Young. Brave.", got)

	again, err := Compose(is, merlin, arthur, "A tavern.")
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestCompose_UnknownSlot(t *testing.T) {
	is := config.InstructionSet{Instructions: []string{"Hello {weather}"}}
	_, err := Compose(is, merlin, arthur, "")

	var te *TemplateError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "instruction set", te.Name)
	assert.Equal(t, "weather", te.Slot)
	assert.Contains(t, err.Error(), "template instruction set: unknown slot {weather}")
}

func TestRenderContext(t *testing.T) {
	ctx := config.Context{Description: []string{"{userName} enters.", "{expertName} waits."}}
	got, err := RenderContext(ctx, arthur, merlin)
	require.NoError(t, err)
	assert.Equal(t, "Arthur enters. Merlin waits.", got)

	// The context template has no access to descriptions.
	_, err = RenderContext(config.Context{Description: []string{"{userDescription}"}}, arthur, merlin)
	var te *TemplateError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "context", te.Name)
}

func TestSystemMessage(t *testing.T) {
	is := config.InstructionSet{Instructions: []string{"Be {expertName}."}}
	msg, err := SystemMessage(is, merlin, arthur, "")
	require.NoError(t, err)
	assert.Equal(t, model.RoleSystem, msg.Role)
	assert.Equal(t, "Be Merlin.", msg.Content)
}

func TestBuild(t *testing.T) {
	r := &config.Resolved{
		InstructionSet: config.InstructionSet{Instructions: []string{"{expertName} in {context}"}},
		Expert:         merlin,
		User:           arthur,
		Context:        config.Context{Description: []string{"{userName}'s hall"}},
	}
	p, err := Build(r)
	require.NoError(t, err)
	assert.Equal(t, "Arthur's hall", p.Context)
	assert.Equal(t, "Merlin in Arthur's hall", p.System.Content)

	// Composition is not applied to the context a second time.
	r.Context = config.Context{Description: []string{"{{literal}}"}}
	p, err = Build(r)
	require.NoError(t, err)
	assert.Equal(t, "{literal}", p.Context)
	assert.Equal(t, "Merlin in {literal}", p.System.Content)
}
