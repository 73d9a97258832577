package validators

import "go.mongodb.org/mongo-driver/bson"

// UserValidator covers the loyalty fields. Profile data lives with the auth provider.
var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"loyalty": bson.M{
				"bsonType": "object",
				"properties": bson.M{
					"points": bson.M{
						"bsonType": []string{"int", "long"},
					},
				},
			},
		},
	},
}
