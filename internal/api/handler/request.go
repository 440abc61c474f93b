package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/api/middleware"
	"github.com/Rrens/taskboard/internal/api/response"
	"github.com/Rrens/taskboard/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		return primitive.IsValidObjectID(fl.Field().String())
	})
	return v
}

// decode reads a JSON body into input and validates it. On failure the error
// response has already been written.
func decode(w http.ResponseWriter, r *http.Request, input any) bool {
	if err := json.NewDecoder(r.Body).Decode(input); err != nil {
		response.BadRequest(w, "invalid request body", nil)
		return false
	}
	return check(w, input)
}

// decodeOptional is decode for endpoints whose body may be empty
func decodeOptional(w http.ResponseWriter, r *http.Request, input any) bool {
	if r.Body == nil {
		return check(w, input)
	}
	if err := json.NewDecoder(r.Body).Decode(input); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "invalid request body", nil)
		return false
	}
	return check(w, input)
}

func check(w http.ResponseWriter, input any) bool {
	if err := validate.Struct(input); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fields := make(map[string]string)
			for _, e := range validationErrors {
				field := e.Field()
				tag := e.Tag()
				switch tag {
				case "required":
					fields[field] = "field is required"
				case "email":
					fields[field] = "invalid email format"
				case "objectid":
					fields[field] = "invalid id"
				case "min":
					fields[field] = "must be at least " + e.Param()
				case "max":
					fields[field] = "must be at most " + e.Param()
				case "oneof":
					fields[field] = "must be one of " + e.Param()
				default:
					fields[field] = "validation failed on " + tag
				}
			}
			response.BadRequest(w, "validation failed", fields)
			return false
		}
		response.BadRequest(w, err.Error(), nil)
		return false
	}
	return true
}

// actor returns the authenticated caller. On failure the error response has already been written.
func actor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	a, ok := middleware.GetActor(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
	}
	return a, ok
}

// pathID parses the named URL parameter as an object id
func pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := domain.ParseID(name, chi.URLParam(r, name))
	if err != nil {
		response.FromError(w, r, err)
		return primitive.NilObjectID, false
	}
	return id, true
}

// itemPath parses the card, checklist and item ids of a checklist item route
func itemPath(w http.ResponseWriter, r *http.Request) (card, checklist, item primitive.ObjectID, ok bool) {
	if card, ok = pathID(w, r, "cardID"); !ok {
		return
	}
	if checklist, ok = pathID(w, r, "checklistID"); !ok {
		return
	}
	item, ok = pathID(w, r, "itemID")
	return
}

// queryLimit reads the "limit" query parameter; zero means the service default
func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
