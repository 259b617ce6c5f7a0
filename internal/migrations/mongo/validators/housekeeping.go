package validators

import "go.mongodb.org/mongo-driver/bson"

var HousekeepingTaskValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"room_id",
			"type",
			"status",
			"priority",
			"score",
			"source",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"room_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"type": bson.M{
				"enum": []string{"CLEANING", "INSPECTION", "MAINTENANCE", "TURNDOWN", "DEEP_CLEAN", "LAUNDRY"},
			},

			"status": bson.M{
				"enum": []string{"PENDING", "IN_PROGRESS", "COMPLETED", "VERIFIED", "REJECTED"},
			},

			"priority": bson.M{
				"enum": []string{"LOW", "MEDIUM", "HIGH", "URGENT"},
			},

			"score": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"source": bson.M{
				"enum": []string{"manual", "check_in", "check_out", "sweep", "rework"},
			},

			"notes": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
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
