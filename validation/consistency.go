package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/c360studio/semforge/issues"
	"github.com/c360studio/semforge/rules"
)

// ConsistentContainerProperties checks that every group of properties
// sharing a (container, container property) pair agrees on value type,
// list-ness, nullability, default, index set, and constraint set. On
// agreement the first explicit definition is broadcast across the
// group so later compilation sees one definition per storage slot.
type ConsistentContainerProperties struct{}

// Name implements Stage.
func (ConsistentContainerProperties) Name() string { return "consistent container properties" }

// Run implements Stage.
func (ConsistentContainerProperties) Run(r *rules.DMSRules, out *issues.List) {
	type groupKey struct {
		container rules.ContainerEntity
		property  string
	}
	groups := make(map[groupKey][]int)
	var order []groupKey
	for i, p := range r.Properties {
		if !p.HasContainer() {
			continue
		}
		key := groupKey{p.Container, p.ContainerProperty}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	for _, key := range order {
		members := groups[key]
		if len(members) < 2 {
			continue
		}

		rows := make([]int, len(members))
		for n, i := range members {
			rows[n] = r.Properties[i].Row
		}

		slot := fmt.Sprintf("%s.%s", key.container, key.property)
		mismatch := func(attribute string, values []string) {
			iss := issues.Errorf(issues.CodeInconsistentContainerProperty,
				"properties redefining %s disagree on %s: %s",
				slot, attribute, strings.Join(values, " vs "))
			iss.Rows = rows
			out.Append(iss)
		}

		ok := true
		if values := distinct(members, func(p rules.DMSProperty) string { return p.ValueType.String() }, r); len(values) > 1 {
			mismatch("value type", values)
			ok = false
		}
		if values := distinct(members, func(p rules.DMSProperty) string { return fmt.Sprint(p.IsList) }, r); len(values) > 1 {
			mismatch("list-ness", values)
			ok = false
		}
		if values := distinctSet(members, r, func(p rules.DMSProperty) (string, bool) {
			if p.Nullable == nil {
				return "", false
			}
			return fmt.Sprint(*p.Nullable), true
		}); len(values) > 1 {
			mismatch("nullability", values)
			ok = false
		}
		if values := distinctSet(members, r, func(p rules.DMSProperty) (string, bool) {
			if p.Default == nil {
				return "", false
			}
			return fmt.Sprint(p.Default), true
		}); len(values) > 1 {
			mismatch("default", values)
			ok = false
		}
		if values := distinct(members, func(p rules.DMSProperty) string { return sortedJoin(p.Index) }, r); len(values) > 1 {
			mismatch("index set", values)
			ok = false
		}
		if values := distinct(members, func(p rules.DMSProperty) string { return sortedJoin(p.Constraint) }, r); len(values) > 1 {
			mismatch("unique constraint set", values)
			ok = false
		}

		if ok {
			broadcast(r, members)
		}
	}
}

// broadcast copies the first explicit definition of each attribute to
// every member of an agreeing group.
func broadcast(r *rules.DMSRules, members []int) {
	first := r.Properties[members[0]]
	var nullable *bool
	var def any
	maxListSize := 0
	for _, i := range members {
		p := r.Properties[i]
		if nullable == nil && p.Nullable != nil {
			n := *p.Nullable
			nullable = &n
		}
		if def == nil && p.Default != nil {
			def = p.Default
		}
		if maxListSize == 0 && p.MaxListSize != 0 {
			maxListSize = p.MaxListSize
		}
	}
	for _, i := range members {
		p := &r.Properties[i]
		p.ValueType = first.ValueType
		p.IsList = first.IsList
		if nullable != nil {
			n := *nullable
			p.Nullable = &n
		}
		if def != nil {
			p.Default = def
		}
		if maxListSize != 0 {
			p.MaxListSize = maxListSize
		}
		p.Index = append([]string(nil), first.Index...)
		p.Constraint = append([]string(nil), first.Constraint...)
	}
}

func distinct(members []int, key func(rules.DMSProperty) string, r *rules.DMSRules) []string {
	return distinctSet(members, r, func(p rules.DMSProperty) (string, bool) {
		return key(p), true
	})
}

func distinctSet(members []int, r *rules.DMSRules, key func(rules.DMSProperty) (string, bool)) []string {
	seen := make(map[string]bool)
	var values []string
	for _, i := range members {
		v, ok := key(r.Properties[i])
		if !ok {
			continue
		}
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	return values
}

func sortedJoin(items []string) string {
	if len(items) == 0 {
		return "<none>"
	}
	sorted := append([]string(nil), items...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
