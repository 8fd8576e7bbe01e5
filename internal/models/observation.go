package models

import (
	"math"
	"time"
)

// Названия погодных признаков в нотации NOAA Global Summary of the Day
const (
	FieldTemp      = "TEMP"
	FieldDewPoint  = "DEWP"
	FieldSeaLevel  = "SLP"
	FieldWindSpeed = "WDSP"
	FieldGust      = "GUST"
	FieldPrecip    = "PRCP"
	FieldMaxTemp   = "MAX"
	FieldMinTemp   = "MIN"
)

// WeatherFields - порядок погодных полей, которые переносятся в вектор признаков
var WeatherFields = []string{
	FieldTemp,
	FieldDewPoint,
	FieldSeaLevel,
	FieldWindSpeed,
	FieldGust,
	FieldPrecip,
	FieldMaxTemp,
	FieldMinTemp,
}

// Observation - одно наблюдение метеостанции
type Observation struct {
	Station   string             `json:"station,omitempty"`
	Latitude  float64            `json:"latitude"`
	Longitude float64            `json:"longitude"`
	Timestamp time.Time          `json:"timestamp"`
	Fields    map[string]float64 `json:"fields"`
}

// Complete сообщает, заданы ли координаты и все погодные поля конечными числами
func (o Observation) Complete() bool {
	if !finite(o.Latitude) || !finite(o.Longitude) {
		return false
	}
	for _, name := range WeatherFields {
		v, ok := o.Fields[name]
		if !ok || !finite(v) {
			return false
		}
	}
	return true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
