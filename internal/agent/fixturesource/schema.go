package fixturesource

// eventSchema describes the JSON envelope a fixture document's events
// must match: one object per event, discriminated by "kind".
const eventSchema = `{
  "type": "object",
  "required": ["events"],
  "properties": {
    "events": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["kind", "timestamp_ms"],
        "properties": {
          "kind": {"type": "string", "enum": ["alloc", "free", "gc_start", "gc_finish"]},
          "tag": {"type": "integer"},
          "size": {"type": "integer"},
          "timestamp_ms": {"type": "integer"},
          "class_name": {"type": "string"},
          "thread_id": {"type": "integer"},
          "thread_name": {"type": "string"},
          "frames": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {
                "class": {"type": "string"},
                "method": {"type": "string"},
                "file": {"type": "string"},
                "line": {"type": "integer"}
              }
            }
          }
        }
      }
    }
  }
}`
