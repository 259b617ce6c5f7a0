package validators

import "go.mongodb.org/mongo-driver/bson"

var RoomValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"number",
			"room_type",
			"max_occupancy",
			"rate",
			"occupancy_status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"number": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 20,
			},

			"room_type": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 50,
			},

			"floor": bson.M{
				"bsonType":  "string",
				"maxLength": 10,
			},

			"max_occupancy": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  20,
			},

			"rate": bson.M{
				"bsonType": []string{"double", "int", "long"},
				"minimum":  0,
			},

			"occupancy_status": bson.M{
				"enum": []string{"AVAILABLE", "OCCUPIED", "RESERVED", "BLOCKED", "OUT_OF_SERVICE"},
			},

			// Rooms written before the status split have no housekeeping_status
			// and carry the combined value in "status" instead.
			"housekeeping_status": bson.M{
				"enum": []string{"CLEAN", "DIRTY", "INSPECTED", "PICKUP", "MAINTENANCE"},
			},

			"status": bson.M{
				"bsonType": "string",
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
