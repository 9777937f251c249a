package validators

import "go.mongodb.org/mongo-driver/bson"

var ReservationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"apartment_id",
			"guest_name",
			"guest_email",
			"check_in",
			"check_out",
			"payment_reference",
			"status",
			"sync_failed",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"apartment_id": bson.M{
				"bsonType": "string",
			},

			"guest_name": bson.M{
				"bsonType":  "string",
				"maxLength": 200,
			},

			"guest_email": bson.M{
				"bsonType": "string",
			},

			"check_in": bson.M{
				"bsonType": "date",
			},

			"check_out": bson.M{
				"bsonType": "date",
			},

			"guests_count": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"total_price": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"currency": bson.M{
				"bsonType":  "string",
				"maxLength": 3,
			},

			"payment_reference": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"cancelled",
				},
			},

			"sync_failed": bson.M{
				"bsonType": "bool",
			},

			"sync_attempts": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"manually_resolved": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
