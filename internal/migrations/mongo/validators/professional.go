package validators

import "go.mongodb.org/mongo-driver/bson"

const (
	objectIDPattern = "^[0-9a-f]{24}$"
	e164Pattern     = `^\+[1-9][0-9]{1,14}$`
	hhmmPattern     = "^([01][0-9]|2[0-3]):[0-5][0-9]$"
	datePattern     = `^\d{4}-\d{2}-\d{2}$`
)

var ProfessionalValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"salon_id",
			"name",
			"active",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"salon_id": bson.M{
				"bsonType": "string",
				"pattern":  objectIDPattern,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"active": bson.M{
				"bsonType": "bool",
			},

			// Keys are weekday names as entered; the values are normalized.
			"recurring_availability": bson.M{
				"bsonType": "object",
				"additionalProperties": bson.M{
					"bsonType": "object",
					"required": []string{"is_work_day"},
					"properties": bson.M{
						"is_work_day": bson.M{"bsonType": "bool"},
						"start_time":  bson.M{"bsonType": "string", "pattern": hhmmPattern},
						"end_time":    bson.M{"bsonType": "string", "pattern": hhmmPattern},
					},
				},
			},

			"date_overrides": bson.M{
				"bsonType": []string{"array", "null"},
				"maxItems": 366,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"date", "type"},
					"properties": bson.M{
						"date": bson.M{"bsonType": "string", "pattern": datePattern},
						"type": bson.M{
							"bsonType": "string",
							"enum":     []string{"available", "unavailable"},
						},
						"start_time": bson.M{"bsonType": "string", "pattern": hhmmPattern},
						"end_time":   bson.M{"bsonType": "string", "pattern": hhmmPattern},
					},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
