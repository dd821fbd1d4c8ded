package core

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Automation rules are held in memory only, matching their current lifecycle:
// created and edited by the teacher, lost on restart. No evaluator exists yet;
// a future component would watch status transitions, match trigger, condition
// and scope, and deliver the action message through MessageService.

type AutomationTrigger string

const (
	TriggerStatusChangeOnToOff AutomationTrigger = "STATUS_CHANGE_ON_TO_OFF"
	TriggerStatusChangeOffToOn AutomationTrigger = "STATUS_CHANGE_OFF_TO_ON"
	TriggerOnTaskForMinutes    AutomationTrigger = "ON_TASK_FOR_MINUTES"
	TriggerOffTaskForMinutes   AutomationTrigger = "OFF_TASK_FOR_MINUTES"
)

type AutomationScope string

const (
	ScopeSingleStudent AutomationScope = "SINGLE_STUDENT"
	ScopeAllStudents   AutomationScope = "ALL_STUDENTS"
)

type AutomationCondition struct {
	Minutes int `json:"minutes"`
}

type AutomationAction struct {
	Message string `json:"message"`
}

type AutomationRule struct {
	ID        string               `json:"id"`
	Trigger   AutomationTrigger    `json:"trigger"`
	Condition *AutomationCondition `json:"condition,omitempty"`
	Action    AutomationAction     `json:"action"`
	Scope     AutomationScope      `json:"scope"`
	Enabled   bool                 `json:"enabled"`
}

func validTrigger(t AutomationTrigger) bool {
	switch t {
	case TriggerStatusChangeOnToOff, TriggerStatusChangeOffToOn, TriggerOnTaskForMinutes, TriggerOffTaskForMinutes:
		return true
	}
	return false
}

func validScope(s AutomationScope) bool {
	return s == ScopeSingleStudent || s == ScopeAllStudents
}

// durationTrigger reports whether the trigger needs a minutes condition.
func durationTrigger(t AutomationTrigger) bool {
	return t == TriggerOnTaskForMinutes || t == TriggerOffTaskForMinutes
}

type AutomationRegistry struct {
	mu    sync.RWMutex
	rules map[string]AutomationRule
	order []string
}

func NewAutomationRegistry() *AutomationRegistry {
	return &AutomationRegistry{rules: make(map[string]AutomationRule)}
}

func (r *AutomationRegistry) validate(rule AutomationRule) error {
	if !validTrigger(rule.Trigger) {
		return fmt.Errorf("invalid trigger %q", rule.Trigger)
	}
	if !validScope(rule.Scope) {
		return fmt.Errorf("invalid scope %q", rule.Scope)
	}
	if rule.Action.Message == "" {
		return fmt.Errorf("action message is required")
	}
	if durationTrigger(rule.Trigger) && (rule.Condition == nil || rule.Condition.Minutes <= 0) {
		return fmt.Errorf("trigger %q requires a positive minutes condition", rule.Trigger)
	}
	return nil
}

func (r *AutomationRegistry) List() []AutomationRule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rules := make([]AutomationRule, 0, len(r.order))
	for _, id := range r.order {
		rules = append(rules, r.rules[id])
	}
	return rules
}

func (r *AutomationRegistry) Add(rule AutomationRule) (*AutomationRule, error) {
	if err := r.validate(rule); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rule.ID = uuid.NewString()
	r.rules[rule.ID] = rule
	r.order = append(r.order, rule.ID)
	return &rule, nil
}

func (r *AutomationRegistry) Update(rule AutomationRule) (*AutomationRule, error) {
	if err := r.validate(rule); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rules[rule.ID]; !ok {
		return nil, ErrRuleNotFound
	}
	r.rules[rule.ID] = rule
	return &rule, nil
}

func (r *AutomationRegistry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rules[id]; !ok {
		return ErrRuleNotFound
	}
	delete(r.rules, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

var ErrRuleNotFound = fmt.Errorf("automation rule not found")
