package validators

import "go.mongodb.org/mongo-driver/bson"

var SalonValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"slug",
			"owner_id",
			"phone",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"slug": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 60,
				"pattern":   "^[a-z0-9]+(-[a-z0-9]+)*$",
			},

			"owner_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 128,
			},

			"phone": bson.M{
				"bsonType": "string",
				"pattern":  e164Pattern,
			},

			"time_zone": bson.M{
				"bsonType": "string",
			},

			"slot_granularity_min": bson.M{
				"bsonType": "int",
				"minimum":  5,
				"maximum":  240,
			},

			"services": bson.M{
				"bsonType": []string{"array", "null"},
				"maxItems": 100,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"name", "price", "duration_min"},
					"properties": bson.M{
						"name": bson.M{
							"bsonType":  "string",
							"minLength": 2,
							"maxLength": 100,
						},
						"price": bson.M{
							"bsonType": "decimal",
							"minimum":  0,
						},
						"duration_min": bson.M{
							"bsonType": "int",
							"minimum":  1,
							"maximum":  720,
						},
					},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
