package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dafibh/fintrack/fintrack-backend/docs"
	"github.com/labstack/echo/v4"
	"github.com/swaggo/swag"
)

type object = map[string]interface{}

// OpenAPIDocument is the subset of OpenAPI 3.0 the API publishes
type OpenAPIDocument struct {
	OpenAPI    string   `json:"openapi"`
	Info       object   `json:"info"`
	Servers    []Server `json:"servers"`
	Paths      object   `json:"paths"`
	Components object   `json:"components,omitempty"`
}

type Server struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// ServeOpenAPI3Spec serves the generated Swagger 2.0 document as OpenAPI 3.0
func ServeOpenAPI3Spec(c echo.Context) error {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		return NewInternalError(c, "Failed to read API documentation")
	}
	converted, err := convertSwagger2([]byte(doc))
	if err != nil {
		return NewInternalError(c, "Failed to parse API documentation")
	}
	return c.JSON(http.StatusOK, converted)
}

func convertSwagger2(raw []byte) (*OpenAPIDocument, error) {
	var src object
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, err
	}

	components := object{}
	if defs, ok := src["securityDefinitions"].(object); ok {
		components["securitySchemes"] = defs
	}
	if defs, ok := src["definitions"].(object); ok {
		components["schemas"] = rewriteRefs(defs)
	}

	paths := object{}
	if srcPaths, ok := src["paths"].(object); ok {
		for path, item := range srcPaths {
			ops, ok := item.(object)
			if !ok {
				continue
			}
			converted := object{}
			for method, op := range ops {
				if opObj, ok := op.(object); ok {
					converted[method] = convertOperation(opObj)
				}
			}
			paths[path] = converted
		}
	}

	info, _ := src["info"].(object)
	basePath, _ := src["basePath"].(string)
	return &OpenAPIDocument{
		OpenAPI:    "3.0.3",
		Info:       info,
		Servers:    []Server{{URL: "http://localhost:8080" + basePath, Description: "Local Development"}},
		Paths:      paths,
		Components: components,
	}, nil
}

// convertOperation moves body and formData parameters into a requestBody
// and wraps response schemas in a content map.
func convertOperation(op object) object {
	out := object{}
	for k, v := range op {
		switch k {
		case "parameters", "responses", "consumes", "produces":
		default:
			out[k] = rewriteRefs(v)
		}
	}

	var params []interface{}
	form := object{}
	var required []interface{}
	list, _ := op["parameters"].([]interface{})
	for _, p := range list {
		param, ok := p.(object)
		if !ok {
			continue
		}
		switch param["in"] {
		case "body":
			out["requestBody"] = object{
				"required": param["required"],
				"content": object{
					"application/json": object{"schema": rewriteRefs(param["schema"])},
				},
			}
		case "formData":
			name, _ := param["name"].(string)
			schema := object{"type": param["type"]}
			if param["type"] == "file" {
				schema = object{"type": "string", "format": "binary"}
			}
			form[name] = schema
			if param["required"] == true {
				required = append(required, name)
			}
		default:
			params = append(params, convertParameter(param))
		}
	}
	if len(form) > 0 {
		schema := object{"type": "object", "properties": form}
		if len(required) > 0 {
			schema["required"] = required
		}
		out["requestBody"] = object{
			"required": true,
			"content":  object{"multipart/form-data": object{"schema": schema}},
		}
	}
	if len(params) > 0 {
		out["parameters"] = params
	}

	mediaType := "application/json"
	if produces, ok := op["produces"].([]interface{}); ok && len(produces) > 0 {
		if s, ok := produces[0].(string); ok {
			mediaType = s
		}
	}
	responses := object{}
	if srcResponses, ok := op["responses"].(object); ok {
		for code, r := range srcResponses {
			resp, ok := r.(object)
			if !ok {
				continue
			}
			converted := object{"description": resp["description"]}
			if schema, ok := resp["schema"]; ok {
				media := mediaType
				if code[0] != '2' {
					media = "application/problem+json"
				}
				converted["content"] = object{media: object{"schema": rewriteRefs(schema)}}
			}
			responses[code] = converted
		}
	}
	out["responses"] = responses
	return out
}

func convertParameter(param object) object {
	out := object{}
	for _, field := range []string{"name", "in", "description", "required"} {
		if v, ok := param[field]; ok {
			out[field] = v
		}
	}
	schema := object{}
	for _, field := range []string{"type", "format", "enum", "default", "items"} {
		if v, ok := param[field]; ok {
			schema[field] = rewriteRefs(v)
		}
	}
	if len(schema) > 0 {
		out["schema"] = schema
	}
	return out
}

func rewriteRefs(data interface{}) interface{} {
	switch v := data.(type) {
	case object:
		out := make(object, len(v))
		for key, value := range v {
			if ref, ok := value.(string); ok && key == "$ref" {
				out[key] = strings.Replace(ref, "#/definitions/", "#/components/schemas/", 1)
				continue
			}
			out[key] = rewriteRefs(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = rewriteRefs(item)
		}
		return out
	default:
		return data
	}
}
