package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/campusgeo/internal/core/domain"
	"github.com/samirrijal/campusgeo/internal/pkg/logging"
)

// DetectHandler identifies the building in the multipart field "image".
// Validation runs in a fixed order and each failure has its own message.
func DetectHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store")
		ctx := c.UserContext()
		log := logging.FromContext(ctx)

		form, err := c.MultipartForm()
		if err != nil {
			return errBadRequest(c, msgNoImagePart)
		}
		files := form.File["image"]
		if len(files) == 0 {
			if _, ok := form.Value["image"]; ok && imagePartHasFilename(c) {
				return errBadRequest(c, msgNoSelected)
			}
			return errBadRequest(c, msgNoImagePart)
		}
		fh := files[0]
		if fh.Filename == "" {
			return errBadRequest(c, msgNoSelected)
		}

		f, err := fh.Open()
		if err != nil {
			return errInternal(c, msgProcessPrefix+err.Error())
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return errInternal(c, msgProcessPrefix+err.Error())
		}
		if len(data) == 0 {
			return errBadRequest(c, msgEmptyFile)
		}

		log.Info("image received",
			"filename", fh.Filename,
			"size", len(data),
			"content_type", fh.Header.Get(fiber.HeaderContentType),
		)

		result, err := deps.Detections.Identify(ctx, data)
		if err != nil {
			return detectError(c, err)
		}
		return c.JSON(result)
	}
}

// imagePartHasFilename reports whether the body carries an "image" part whose
// Content-Disposition has a filename parameter, empty or not. A file input
// left empty sends filename="" and the multipart reader files it under values
// together with plain text fields, so only the raw header tells them apart.
func imagePartHasFilename(c *fiber.Ctx) bool {
	boundary := string(c.Request().Header.MultipartFormBoundary())
	if boundary == "" {
		return false
	}
	r := multipart.NewReader(bytes.NewReader(c.Body()), boundary)
	for {
		p, err := r.NextRawPart()
		if err != nil {
			return false
		}
		_, params, err := mime.ParseMediaType(p.Header.Get(fiber.HeaderContentDisposition))
		if err != nil || params["name"] != "image" {
			continue
		}
		if _, ok := params["filename"]; ok {
			return true
		}
	}
}

func detectError(c *fiber.Ctx, err error) error {
	log := logging.FromContext(c.UserContext())
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		// the timeout middleware turns this into a 408
		log.Warn("detection timed out", "error", err)
		return err
	case errors.Is(err, domain.ErrImageTooLarge):
		log.Warn("oversized upload", "error", err)
		return errBadRequest(c, msgTooLarge)
	case errors.Is(err, domain.ErrImageDecode):
		log.Warn("undecodable upload", "error", err)
		return errBadRequest(c, msgDecodeFailed)
	case errors.Is(err, domain.ErrNoBuildingDetected):
		log.Info("no building in image")
		return errBadRequest(c, msgNoBuilding)
	default:
		log.Error("detection failed", "error", err)
		return errInternal(c, msgProcessPrefix+err.Error())
	}
}

// ListBuildingsHandler returns the building catalog in classifier order.
func ListBuildingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		all := deps.Catalog.List(c.UserContext())

		offset, limit := pageParams(c, 50, 100)
		lo, hi := page(len(all), offset, limit)

		pg := Pagination{Offset: offset, Limit: limit, Total: len(all)}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: all[lo:hi], Pagination: pg})
	}
}

// GetBuildingHandler returns one building by label.
func GetBuildingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		info, err := deps.Catalog.Get(c.UserContext(), c.Params("label"))
		if errors.Is(err, domain.ErrUnknownBuilding) {
			return errNotFound(c, "building not found")
		}
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(info)
	}
}

// BuildingRangeHandler returns the straight-line distance from ?lat=&lon= to
// a building.
func BuildingRangeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
		if errLat != nil || errLon != nil {
			return errBadRequest(c, "lat and lon query parameters are required numbers")
		}

		r, err := deps.Catalog.Range(c.UserContext(), c.Params("label"), domain.GeoPoint{Lat: lat, Lon: lon})
		switch {
		case errors.Is(err, domain.ErrUnknownBuilding):
			return errNotFound(c, "building not found")
		case errors.Is(err, domain.ErrInvalidCoordinates):
			return errBadRequest(c, fmt.Sprintf("coordinates out of range: lat=%v lon=%v", lat, lon))
		case err != nil:
			return errInternal(c, err.Error())
		}
		return c.JSON(r)
	}
}
