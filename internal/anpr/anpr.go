// Package anpr parses vendor-specific ANPR camera payloads into a common
// detection shape. Cameras differ wildly in framing (XML bodies, multipart
// forms, JSON pushes), so parsing is deliberately tolerant: missing optional
// fields are zero, only a missing plate is an error.
package anpr

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"strconv"
	"strings"
	"time"
)

// ErrNoPlate is returned when a payload carries no usable plate number.
var ErrNoPlate = errors.New("anpr: no plate in payload")

// Detection is one parsed plate detection, vendor-independent.
type Detection struct {
	Plate        string
	Confidence   float64
	Direction    string
	Timestamp    time.Time
	PlateImage   []byte
	VehicleImage []byte
}

// NormalizePlate uppercases a raw plate and strips separators. Returns ""
// for plates with no usable characters.
func NormalizePlate(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseHikvisionXML extracts a detection from a Hikvision event XML body.
// Tag matching is namespace-insensitive because firmware revisions disagree
// on the schema URL.
func ParseHikvisionXML(data []byte) (*Detection, error) {
	det := &Detection{Timestamp: time.Now()}
	dec := xml.NewDecoder(bytes.NewReader(data))

	var current string
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			current = strings.ToLower(t.Name.Local)
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			switch current {
			case "licenseplate", "platenumber":
				if det.Plate == "" {
					det.Plate = NormalizePlate(text)
				}
			case "originallicenseplate":
				if det.Plate == "" {
					det.Plate = NormalizePlate(text)
				}
			case "confidence", "plateconfidence", "confidencelevel":
				if f, err := strconv.ParseFloat(text, 64); err == nil {
					// Some models report 0..100, others 0..1.
					if f > 1 {
						f /= 100
					}
					det.Confidence = f
				}
			case "direction", "vehicledirection":
				det.Direction = strings.ToLower(text)
			case "datetime", "capturetime":
				if ts, err := time.Parse(time.RFC3339, text); err == nil {
					det.Timestamp = ts
				}
			case "licenseplatepicture", "plateimage":
				if img, err := base64.StdEncoding.DecodeString(text); err == nil {
					det.PlateImage = img
				}
			case "vehiclepicture", "vehicleimage":
				if img, err := base64.StdEncoding.DecodeString(text); err == nil {
					det.VehicleImage = img
				}
			}
		case xml.EndElement:
			current = ""
		}
	}

	if det.Plate == "" {
		return nil, ErrNoPlate
	}
	return det, nil
}

// ParseHikvisionMultipart handles the multipart/form-data framing newer
// Hikvision firmware uses: one XML part with the event plus JPEG parts with
// the plate and scene crops.
func ParseHikvisionMultipart(body io.Reader, contentType string) (*Detection, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, err
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, errors.New("anpr: multipart body without boundary")
	}

	var det *Detection
	var plateImg, vehicleImg []byte

	mr := multipart.NewReader(body, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, err
		}

		name := strings.ToLower(part.FormName())
		switch {
		case strings.Contains(part.Header.Get("Content-Type"), "xml"),
			strings.HasSuffix(strings.ToLower(part.FileName()), ".xml"):
			if d, err := ParseHikvisionXML(data); err == nil {
				det = d
			}
		case strings.Contains(name, "licenseplatepicture"):
			plateImg = data
		case strings.Contains(name, "detectionpicture"), strings.Contains(name, "vehiclepicture"):
			vehicleImg = data
		}
	}

	if det == nil {
		return nil, ErrNoPlate
	}
	if det.PlateImage == nil {
		det.PlateImage = plateImg
	}
	if det.VehicleImage == nil {
		det.VehicleImage = vehicleImg
	}
	return det, nil
}

// dahuaEvent mirrors the fields Dahua ITC cameras push as JSON. Field names
// vary between firmware generations, hence the aliases.
type dahuaEvent struct {
	Picture struct {
		Plate struct {
			PlateNumber string  `json:"PlateNumber"`
			Confidence  float64 `json:"Confidence"`
		} `json:"Plate"`
		SnapInfo struct {
			Direction string `json:"Direction"`
		} `json:"SnapInfo"`
	} `json:"Picture"`
	PlateNumber string  `json:"plateNumber"`
	Plate       string  `json:"plate"`
	Confidence  float64 `json:"confidence"`
	CaptureTime string  `json:"captureTime"`
}

// ParseDahuaJSON extracts a detection from a Dahua ITC JSON push.
func ParseDahuaJSON(data []byte) (*Detection, error) {
	var ev dahuaEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}

	det := &Detection{Timestamp: time.Now()}

	switch {
	case ev.Picture.Plate.PlateNumber != "":
		det.Plate = NormalizePlate(ev.Picture.Plate.PlateNumber)
		det.Confidence = ev.Picture.Plate.Confidence
		det.Direction = strings.ToLower(ev.Picture.SnapInfo.Direction)
	case ev.PlateNumber != "":
		det.Plate = NormalizePlate(ev.PlateNumber)
		det.Confidence = ev.Confidence
	case ev.Plate != "":
		det.Plate = NormalizePlate(ev.Plate)
		det.Confidence = ev.Confidence
	}

	if det.Confidence > 1 {
		det.Confidence /= 100
	}
	if ev.CaptureTime != "" {
		if ts, err := time.Parse(time.RFC3339, ev.CaptureTime); err == nil {
			det.Timestamp = ts
		}
	}

	if det.Plate == "" {
		return nil, ErrNoPlate
	}
	return det, nil
}
