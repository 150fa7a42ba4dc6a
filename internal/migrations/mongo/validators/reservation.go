package validators

import "go.mongodb.org/mongo-driver/bson"

var ReservationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"resource_id",
			"requester_id",
			"purpose",
			"status",
			"start_time",
			"end_time",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"resource_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"requester_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"purpose": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 500,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"approved",
					"rejected",
					"completed",
				},
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": "date",
			},

			"attendees": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var ReservationLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "owner", "expires_at"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},
			"owner": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"expires_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
