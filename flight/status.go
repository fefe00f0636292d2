// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package flight

// Flight status codes reported by oracles
const (
	StatusUnknown       uint8 = 0
	StatusOnTime        uint8 = 10
	StatusLateAirline   uint8 = 20
	StatusLateWeather   uint8 = 30
	StatusLateTechnical uint8 = 40
	StatusLateOther     uint8 = 50
)

var statusNames = map[uint8]string{
	StatusUnknown:       "unknown",
	StatusOnTime:        "on-time",
	StatusLateAirline:   "late-airline",
	StatusLateWeather:   "late-weather",
	StatusLateTechnical: "late-technical",
	StatusLateOther:     "late-other",
}

// ValidStatus reports whether code is a known status code
func ValidStatus(code uint8) bool {
	_, ok := statusNames[code]
	return ok
}

// StatusCodes returns the known status codes in ascending order
func StatusCodes() []uint8 {
	return []uint8{
		StatusUnknown,
		StatusOnTime,
		StatusLateAirline,
		StatusLateWeather,
		StatusLateTechnical,
		StatusLateOther,
	}
}

func StatusName(code uint8) string {
	if name, ok := statusNames[code]; ok {
		return name
	}
	return "invalid"
}
