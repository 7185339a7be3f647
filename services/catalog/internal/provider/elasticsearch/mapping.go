package elasticsearch

// DefaultIndexName is the index used when none is configured.
const DefaultIndexName = "edupress_courses"

// indexMapping keeps title and description as wildcard fields for the
// substring search, with text sub-fields for relevance scoring.
const indexMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  },
  "mappings": {
    "properties": {
      "id":               { "type": "keyword" },
      "slug":             { "type": "keyword" },
      "title":            { "type": "wildcard", "fields": { "text": { "type": "text" } } },
      "description":      { "type": "wildcard", "fields": { "text": { "type": "text" } } },
      "instructor":       { "type": "keyword" },
      "thumbnail":        { "type": "keyword", "index": false },
      "price":            { "type": "scaled_float", "scaling_factor": 100 },
      "original_price":   { "type": "scaled_float", "scaling_factor": 100 },
      "rating":           { "type": "float" },
      "review_count":     { "type": "integer" },
      "category":         { "type": "keyword" },
      "level":            { "type": "keyword" },
      "enrollment_count": { "type": "integer" },
      "is_free":          { "type": "boolean" },
      "duration_minutes": { "type": "integer" },
      "lessons":          { "type": "integer" },
      "sync_generation":  { "type": "long" }
    }
  }
}`
