package validators

import "go.mongodb.org/mongo-driver/bson"

var ReservationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"uid",
			"name",
			"phone",
			"date",
			"time",
			"guests",
			"total",
			"status",
			"bonus_awarded",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"uid": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 128,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"phone": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 32,
			},

			"date": bson.M{
				"bsonType": "string",
			},

			"time": bson.M{
				"bsonType": "string",
			},

			"guests": bson.M{
				"enum": []string{"2-4 guests", "5-8 guests", "9-15 guests", "All Day"},
			},

			"occasion": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"special_instructions": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},

			"total": bson.M{
				"bsonType": "number",
				"minimum":  0,
			},

			"status": bson.M{
				"enum": []string{"Pending", "Confirmed", "Cancelled"},
			},

			"bonus_awarded": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
