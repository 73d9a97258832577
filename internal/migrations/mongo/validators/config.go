package validators

import "go.mongodb.org/mongo-driver/bson"

// ConfigValidator checks the reservation pricing document. Other documents in the
// collection are left unconstrained.
var ConfigValidator = bson.M{
	"$or": bson.A{
		bson.M{"_id": bson.M{"$ne": "reservation"}},
		bson.M{"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"ratePerHour", "guestRates"},
			"properties": bson.M{
				"ratePerHour": bson.M{
					"bsonType": "number",
					"minimum":  0,
				},
				"guestRates": bson.M{
					"bsonType": "object",
					"additionalProperties": bson.M{
						"bsonType": "number",
						"minimum":  0,
					},
				},
			},
		}},
	},
}
