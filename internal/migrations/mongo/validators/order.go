package validators

import "go.mongodb.org/mongo-driver/bson"

var OrderValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"uid",
			"items",
			"total",
			"amount_minor",
			"currency",
			"payment_reference",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"uid": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"email": bson.M{
				"bsonType": "string",
			},

			"items": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"id", "name", "unit_price", "quantity"},
					"properties": bson.M{
						"id":         bson.M{"bsonType": "string", "minLength": 1},
						"name":       bson.M{"bsonType": "string"},
						"unit_price": bson.M{"bsonType": "number", "minimum": 0},
						"quantity":   bson.M{"bsonType": []string{"int", "long"}, "minimum": 1},
					},
				},
			},

			"subtotal":         bson.M{"bsonType": "number", "minimum": 0},
			"loyalty_discount": bson.M{"bsonType": "number", "minimum": 0},
			"total":            bson.M{"bsonType": "number", "minimum": 0},

			"amount_minor": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"currency": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 3,
			},

			"payment_reference": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"status": bson.M{
				"enum": []string{"Paid"},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
