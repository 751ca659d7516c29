package command

// BatchSchema is the JSON Schema for batch documents.
const BatchSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Rule session batch",
  "type": "object",
  "required": ["commands"],
  "additionalProperties": false,
  "properties": {
    "lookup": {"type": "string"},
    "commands": {
      "type": "array",
      "items": {"$ref": "#/definitions/command"}
    }
  },
  "definitions": {
    "fact": {
      "type": "object",
      "required": ["type"],
      "additionalProperties": false,
      "properties": {
        "type": {"type": "string", "minLength": 1},
        "fields": {"type": "object"}
      }
    },
    "out": {"type": "string", "minLength": 1},
    "command": {
      "type": "object",
      "minProperties": 1,
      "maxProperties": 1,
      "additionalProperties": false,
      "properties": {
        "insert": {
          "type": "object",
          "required": ["object"],
          "additionalProperties": false,
          "properties": {
            "object": {"$ref": "#/definitions/fact"},
            "out-identifier": {"$ref": "#/definitions/out"},
            "entry-point": {"type": "string"}
          }
        },
        "insert-elements": {
          "type": "object",
          "required": ["objects"],
          "additionalProperties": false,
          "properties": {
            "objects": {"type": "array", "items": {"$ref": "#/definitions/fact"}},
            "out-identifier": {"$ref": "#/definitions/out"},
            "entry-point": {"type": "string"}
          }
        },
        "fire-all-rules": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "max": {"type": "integer", "minimum": 0},
            "out-identifier": {"$ref": "#/definitions/out"}
          }
        },
        "set-global": {
          "type": "object",
          "required": ["identifier", "object"],
          "additionalProperties": false,
          "properties": {
            "identifier": {"type": "string", "minLength": 1},
            "object": {},
            "out-identifier": {"$ref": "#/definitions/out"}
          }
        },
        "get-global": {
          "type": "object",
          "required": ["identifier"],
          "additionalProperties": false,
          "properties": {
            "identifier": {"type": "string", "minLength": 1},
            "out-identifier": {"$ref": "#/definitions/out"}
          }
        },
        "get-objects": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "type": {"type": "string"},
            "out-identifier": {"$ref": "#/definitions/out"}
          }
        },
        "query": {
          "type": "object",
          "required": ["name"],
          "additionalProperties": false,
          "properties": {
            "name": {"type": "string", "minLength": 1},
            "arguments": {"type": "array"},
            "out-identifier": {"$ref": "#/definitions/out"}
          }
        },
        "start-process": {
          "type": "object",
          "required": ["process-id"],
          "additionalProperties": false,
          "properties": {
            "process-id": {"type": "string", "minLength": 1},
            "parameters": {"type": "object"},
            "out-identifier": {"$ref": "#/definitions/out"}
          }
        },
        "signal-event": {
          "type": "object",
          "required": ["event-type"],
          "additionalProperties": false,
          "properties": {
            "event-type": {"type": "string", "minLength": 1},
            "event": {},
            "process-instance-id": {"type": "integer", "minimum": 1}
          }
        },
        "abort-process-instance": {
          "type": "object",
          "required": ["process-instance-id"],
          "additionalProperties": false,
          "properties": {
            "process-instance-id": {"type": "integer", "minimum": 1}
          }
        },
        "delete": {
          "type": "object",
          "required": ["fact-handle"],
          "additionalProperties": false,
          "properties": {
            "fact-handle": {"$ref": "#/definitions/out"}
          }
        },
        "update": {
          "type": "object",
          "required": ["fact-handle", "object"],
          "additionalProperties": false,
          "properties": {
            "fact-handle": {"$ref": "#/definitions/out"},
            "object": {"$ref": "#/definitions/fact"}
          }
        }
      }
    }
  }
}`
