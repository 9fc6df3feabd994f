package di

import "github.com/goliatone/go-capsulo/internal/content"

var homeDocument = content.Document{Components: []content.ComponentData{
	{ID: "hero-0", SchemaName: "Hero", Data: map[string]content.FieldValue{
		"title": {Type: "input", Value: "Hello"},
	}},
}}
