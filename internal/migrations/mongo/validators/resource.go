package validators

import "go.mongodb.org/mongo-driver/bson"

var ResourceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"kind",
			"name",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"kind": bson.M{
				"bsonType": "string",
				"enum":     []string{"equipment", "room"},
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"capacity": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  2000,
			},

			"facilities": bson.M{
				"bsonType": "array",
				"maxItems": 30,
				"items": bson.M{
					"bsonType":  "string",
					"maxLength": 60,
				},
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"available",
					"booked",
					"maintenance",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
