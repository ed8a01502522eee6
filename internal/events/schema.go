package events

import "github.com/LizaRyabtseva/user-microservices/internal/schema"

// UserCreatedSchema is the consumer-side schema for user.created payloads.
// All fields are required; anything else on the payload is rejected.
var UserCreatedSchema = &schema.Schema{
	Name: "UserCreated",
	Fields: []schema.Field{
		{Name: "id", Kind: schema.String, NonEmpty: true},
		{Name: "name", Kind: schema.String, NonEmpty: true},
		{Name: "email", Kind: schema.String, NonEmpty: true, Email: true},
		{Name: "createdAt", Kind: schema.String, NonEmpty: true},
	},
}

// UserDeletedSchema is the consumer-side schema for user.deleted payloads.
var UserDeletedSchema = &schema.Schema{
	Name: "UserDeleted",
	Fields: []schema.Field{
		{Name: "id", Kind: schema.String, NonEmpty: true},
	},
}
