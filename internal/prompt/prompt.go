// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"errors"
	"strings"

	"github.com/jcluts/personachat/internal/config"
	"github.com/jcluts/personachat/internal/model"
)

// Slot names available to templates.
const (
	SlotExpertName        = "expertName"
	SlotExpertDescription = "expertDescription"
	SlotContext           = "context"
	SlotUserName          = "userName"
	SlotUserDescription   = "userDescription"
)

// Compose builds the system prompt text. The instruction fragments are joined
// with single spaces and may use every slot.
func Compose(is config.InstructionSet, expert, user config.Persona, contextDescription string) (string, error) {
	text, err := Render(strings.Join(is.Instructions, " "), map[string]string{
		SlotExpertName:        expert.Name,
		SlotExpertDescription: expert.DescriptionText(),
		SlotContext:           contextDescription,
		SlotUserName:          user.Name,
		SlotUserDescription:   user.DescriptionText(),
	})
	return text, named(err, "instruction set")
}

// RenderContext builds the scene description. Only {userName} and
// {expertName} are available.
func RenderContext(ctx config.Context, user, expert config.Persona) (string, error) {
	text, err := Render(strings.Join(ctx.Description, " "), map[string]string{
		SlotUserName:   user.Name,
		SlotExpertName: expert.Name,
	})
	return text, named(err, "context")
}

// SystemMessage is Compose wrapped in a system-role message.
func SystemMessage(is config.InstructionSet, expert, user config.Persona, contextDescription string) (model.Message, error) {
	text, err := Compose(is, expert, user, contextDescription)
	if err != nil {
		return model.Message{}, err
	}
	return model.NewSystemMessage(text), nil
}

// Prompt is everything composed once per run.
type Prompt struct {
	Context string
	System  model.Message
}

// Build renders the context and then the system message for r.
func Build(r *config.Resolved) (*Prompt, error) {
	contextDescription, err := RenderContext(r.Context, r.User, r.Expert)
	if err != nil {
		return nil, err
	}
	system, err := SystemMessage(r.InstructionSet, r.Expert, r.User, contextDescription)
	if err != nil {
		return nil, err
	}
	return &Prompt{Context: contextDescription, System: system}, nil
}

func named(err error, name string) error {
	var te *TemplateError
	if errors.As(err, &te) {
		te.Name = name
	}
	return err
}
