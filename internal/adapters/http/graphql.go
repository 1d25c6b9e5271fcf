package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/campusgeo/internal/core/domain"
)

// buildSchema creates the GraphQL schema over the building catalog.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	buildingType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Building",
		Fields: graphql.Fields{
			"label": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return string(p.Source.(domain.BuildingInfo).Label), nil
				},
			},
			"height_m": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.BuildingInfo).HeightM, nil
				},
			},
			"location": &graphql.Field{
				Type: geoPointType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.BuildingInfo).Location, nil
				},
			},
		},
	})

	rangeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BuildingRange",
		Fields: graphql.Fields{
			"building": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return string(p.Source.(*domain.BuildingRange).Building), nil
				},
			},
			"from":        &graphql.Field{Type: geoPointType},
			"to":          &graphql.Field{Type: geoPointType},
			"distance_m":  &graphql.Field{Type: graphql.Float},
			"bearing_deg": &graphql.Field{Type: graphql.Float},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"buildings": &graphql.Field{
				Type:        graphql.NewList(buildingType),
				Description: "All campus buildings in classifier order",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Catalog.List(p.Context), nil
				},
			},
			"building": &graphql.Field{
				Type:        buildingType,
				Description: "One building by label, null when unknown",
				Args: graphql.FieldConfigArgument{
					"label": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					info, err := deps.Catalog.Get(p.Context, p.Args["label"].(string))
					if errors.Is(err, domain.ErrUnknownBuilding) {
						return nil, nil
					}
					if err != nil {
						return nil, err
					}
					return *info, nil
				},
			},
			"range": &graphql.Field{
				Type:        rangeType,
				Description: "Great-circle distance from a position to a building",
				Args: graphql.FieldConfigArgument{
					"label": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lat":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					from := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)}
					return deps.Catalog.Range(p.Context, p.Args["label"].(string), from)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})
		return c.JSON(result)
	}
}
