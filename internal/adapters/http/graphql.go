package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/pkg/geospatial"
)

func routeSource(src any) (domain.RouteResult, bool) {
	switch r := src.(type) {
	case domain.RouteResult:
		return r, true
	case *domain.RouteResult:
		if r != nil {
			return *r, true
		}
	}
	return domain.RouteResult{}, false
}

func coordinateArgs(args map[string]any, lat, lon string) (domain.Coordinate, error) {
	c := domain.Coordinate{Lat: args[lat].(float64), Lon: args[lon].(float64)}
	return c, c.Validate()
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"coordinate":  &graphql.Field{Type: coordinateType},
		},
	})

	legType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RouteLeg",
		Fields: graphql.Fields{
			"distance_meters":  &graphql.Field{Type: graphql.Float},
			"duration_seconds": &graphql.Field{Type: graphql.Float},
			"start_label":      &graphql.Field{Type: graphql.String},
			"end_label":        &graphql.Field{Type: graphql.String},
		},
	})

	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Route",
		Fields: graphql.Fields{
			"legs":           &graphql.Field{Type: graphql.NewList(legType)},
			"is_approximate": &graphql.Field{Type: graphql.Boolean},
			"total_distance_meters": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					r, _ := routeSource(p.Source)
					return r.TotalDistanceMeters(), nil
				},
			},
			"total_duration_seconds": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					r, _ := routeSource(p.Source)
					return r.TotalDurationSeconds(), nil
				},
			},
		},
	})

	distanceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Distance",
		Fields: graphql.Fields{
			"from":              &graphql.Field{Type: coordinateType},
			"to":                &graphql.Field{Type: coordinateType},
			"distance_km":       &graphql.Field{Type: graphql.Float},
			"avg_speed_kmh":     &graphql.Field{Type: graphql.Float},
			"estimated_minutes": &graphql.Field{Type: graphql.Float},
		},
	})

	navigationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Navigation",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"device_id":     &graphql.Field{Type: graphql.String},
			"status":        &graphql.Field{Type: graphql.String},
			"sequence":      &graphql.Field{Type: graphql.Int},
			"destination":   &graphql.Field{Type: coordinateType},
			"current_route": &graphql.Field{Type: routeType},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"mode": &graphql.Field{
				Type:        graphql.String,
				Description: "Mapping provider mode (ONLINE or OFFLINE)",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Providers.Mode().String(), nil
				},
			},
			"places": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Autocomplete a free-text place query",
				Args: graphql.FieldConfigArgument{
					"query":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q := p.Args["query"].(string)
					radius, _ := p.Args["radius"].(int)
					return deps.Places.Search(p.Context, q, domain.SearchOptions{RadiusMeters: radius}), nil
				},
			},
			"place": &graphql.Field{
				Type:        placeType,
				Description: "Resolve a place id",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					place := deps.Places.Details(p.Context, p.Args["id"].(string))
					if place == nil {
						return nil, nil
					}
					return place, nil
				},
			},
			"route": &graphql.Field{
				Type:        routeType,
				Description: "Compute a route between two points",
				Args: graphql.FieldConfigArgument{
					"originLat":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"originLon":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"destLat":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"destLon":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"travelMode":    &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "DRIVING"},
					"avoidHighways": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
					"avoidTolls":    &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					origin, err := coordinateArgs(p.Args, "originLat", "originLon")
					if err != nil {
						return nil, err
					}
					dest, err := coordinateArgs(p.Args, "destLat", "destLon")
					if err != nil {
						return nil, err
					}
					modeArg, _ := p.Args["travelMode"].(string)
					mode, err := domain.ParseTravelMode(modeArg)
					if err != nil {
						return nil, err
					}
					avoidHighways, _ := p.Args["avoidHighways"].(bool)
					avoidTolls, _ := p.Args["avoidTolls"].(bool)
					return deps.Routes.ComputeRoute(p.Context, domain.RouteRequest{
						Origin:        origin,
						Destination:   dest,
						TravelMode:    mode,
						AvoidHighways: avoidHighways,
						AvoidTolls:    avoidTolls,
					})
				},
			},
			"distance": &graphql.Field{
				Type:        distanceType,
				Description: "Great-circle distance and travel time estimate",
				Args: graphql.FieldConfigArgument{
					"fromLat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"fromLon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"toLat":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"toLon":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"speed":   &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: geospatial.DefaultAvgSpeedKmh},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					from, err := coordinateArgs(p.Args, "fromLat", "fromLon")
					if err != nil {
						return nil, err
					}
					to, err := coordinateArgs(p.Args, "toLat", "toLon")
					if err != nil {
						return nil, err
					}
					speed, _ := p.Args["speed"].(float64)
					if err := validateSpeed(speed); err != nil {
						return nil, err
					}
					km := deps.Routes.Distance(from, to)
					return DistanceResponse{
						From:             from,
						To:               to,
						DistanceKm:       km,
						AvgSpeedKmh:      speed,
						EstimatedMinutes: deps.Routes.EstimateTravelTimeMinutes(km, speed),
					}, nil
				},
			},
			"navigation": &graphql.Field{
				Type:        navigationType,
				Description: "State of a navigation session",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Navigation.Get(p.Args["id"].(string))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
}

// GraphQLHandler serves POST /graphql.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
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
