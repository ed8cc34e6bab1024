package model

import (
	"github.com/google/uuid"
)

// Document is the user facing document type, a decoded JSON/BSON object.
//
//	"id" field is reserved for the document ID.
type Document map[string]interface{}

func (doc Document) GetID() string {
	if id, ok := doc["id"].(string); ok {
		return id
	}
	return ""
}

func (doc Document) SetID(newID string) {
	doc["id"] = newID
}

func (doc Document) GenerateIDIfEmpty() {
	if _, ok := doc["id"]; !ok {
		doc["id"] = uuid.New().String()
	}
}

func (doc Document) HasKey(key string) bool {
	_, exists := doc[key]
	return exists
}
