package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"reservation_number",
			"status",
			"guest",
			"room_type",
			"check_in_date",
			"check_out_date",
			"nights",
			"amount",
			"guests",
			"folio",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"reservation_number": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 40,
			},

			"status": bson.M{
				"enum": []string{"Reserved", "Confirmed", "CheckedIn", "CheckedOut", "Cancelled", "NoShow"},
			},

			"guest": bson.M{
				"bsonType": "object",
				"required": []string{"name", "phone", "email"},
				"properties": bson.M{
					"name": bson.M{
						"bsonType":  "string",
						"minLength": 2,
						"maxLength": 100,
					},
					"phone": bson.M{
						"bsonType": "string",
						"pattern":  `^\+[1-9]\d{7,14}$`,
					},
					"email": bson.M{
						"bsonType":  "string",
						"maxLength": 254,
					},
				},
			},

			"room_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"room_type": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 50,
			},

			"check_in_date": bson.M{
				"bsonType": "date",
			},

			"check_out_date": bson.M{
				"bsonType": "date",
			},

			"nights": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"amount": bson.M{
				"bsonType": []string{"double", "int", "long"},
				"minimum":  0,
			},

			"guests": bson.M{
				"bsonType": "object",
				"required": []string{"adults"},
				"properties": bson.M{
					"adults": bson.M{
						"bsonType": []string{"int", "long"},
						"minimum":  1,
					},
				},
			},

			"folio": bson.M{
				"bsonType": "object",
				"required": []string{"total", "balance"},
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
