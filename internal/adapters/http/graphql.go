package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/freightline/tracker/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Marker",
		Fields: graphql.Fields{
			"lat":   &graphql.Field{Type: graphql.Float},
			"lon":   &graphql.Field{Type: graphql.Float},
			"label": &graphql.Field{Type: graphql.String},
		},
	})

	viewportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Viewport",
		Fields: graphql.Fields{
			"pattern":    &graphql.Field{Type: graphql.String},
			"south_west": &graphql.Field{Type: geoPointType},
			"north_east": &graphql.Field{Type: geoPointType},
			"padding_px": &graphql.Field{Type: graphql.Int},
			"center":     &graphql.Field{Type: geoPointType},
			"zoom":       &graphql.Field{Type: graphql.Int},
		},
	})

	mapViewType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MapView",
		Fields: graphql.Fields{
			"contract_id": &graphql.Field{Type: graphql.String},
			"origin":      &graphql.Field{Type: markerType},
			"destination": &graphql.Field{Type: markerType},
			"route":       &graphql.Field{Type: graphql.NewList(geoPointType)},
			"live":        &graphql.Field{Type: geoPointType},
			"live_source": &graphql.Field{Type: graphql.String},
			"viewport":    &graphql.Field{Type: viewportType},
			"warnings":    &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	contractType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Contract",
		Fields: graphql.Fields{
			"id":                  &graphql.Field{Type: graphql.String},
			"freight_id":          &graphql.Field{Type: graphql.String},
			"driver_id":           &graphql.Field{Type: graphql.String},
			"origin_address":      &graphql.Field{Type: graphql.String},
			"destination_address": &graphql.Field{Type: graphql.String},
			"status":              &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"contract": &graphql.Field{
				Type:        contractType,
				Description: "Get a contract by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					c, err := deps.Contracts.GetByID(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return contractMap(c), nil
				},
			},
			"mapView": &graphql.Field{
				Type:        mapViewType,
				Description: "Markers, route, live position and viewport for a contract",
				Args: graphql.FieldConfigArgument{
					"contract_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					view, err := deps.Tracking.BuildMapView(p.Context, p.Args["contract_id"].(string))
					if err != nil {
						return nil, err
					}
					return mapViewMap(view), nil
				},
			},
			"distance": &graphql.Field{
				Type:        graphql.Float,
				Description: "Great-circle distance in kilometers",
				Args: graphql.FieldConfigArgument{
					"from_lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"from_lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"to_lat":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"to_lon":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					from := domain.GeoPoint{Lat: p.Args["from_lat"].(float64), Lon: p.Args["from_lon"].(float64)}
					to := domain.GeoPoint{Lat: p.Args["to_lat"].(float64), Lon: p.Args["to_lon"].(float64)}
					return deps.Geo.Distance(from, to), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
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

func pointMap(p *domain.GeoPoint) map[string]interface{} {
	if p == nil {
		return nil
	}
	return map[string]interface{}{"lat": p.Lat, "lon": p.Lon}
}

func markerMap(p *domain.LabeledPoint) map[string]interface{} {
	if p == nil {
		return nil
	}
	return map[string]interface{}{"lat": p.Lat, "lon": p.Lon, "label": p.Label}
}

func contractMap(c *domain.Contract) map[string]interface{} {
	return map[string]interface{}{
		"id":                  c.ID,
		"freight_id":          c.FreightID,
		"driver_id":           c.DriverID,
		"origin_address":      c.OriginAddress,
		"destination_address": c.DestinationAddress,
		"status":              string(c.Status),
	}
}

func mapViewMap(v *domain.MapView) map[string]interface{} {
	route := make([]interface{}, 0, len(v.Route))
	for i := range v.Route {
		route = append(route, pointMap(&v.Route[i]))
	}

	vp := map[string]interface{}{"pattern": string(v.Viewport.Pattern)}
	if v.Viewport.Bounds != nil {
		vp["south_west"] = pointMap(&v.Viewport.Bounds.SouthWest)
		vp["north_east"] = pointMap(&v.Viewport.Bounds.NorthEast)
		vp["padding_px"] = v.Viewport.PaddingPx
	} else {
		vp["center"] = pointMap(v.Viewport.Center)
		vp["zoom"] = v.Viewport.Zoom
	}

	m := map[string]interface{}{
		"contract_id": v.ContractID,
		"route":       route,
		"live_source": v.LiveSource,
		"viewport":    vp,
		"warnings":    v.Warnings,
	}
	if v.Origin != nil {
		m["origin"] = markerMap(v.Origin)
	}
	if v.Destination != nil {
		m["destination"] = markerMap(v.Destination)
	}
	if v.Live != nil {
		m["live"] = pointMap(v.Live)
	}
	return m
}
