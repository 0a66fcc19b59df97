// Package domain models air-quality readings and AQI predictions.
//
// # Data Source
//
// Live readings come from the World Air Quality Index (WAQI) feed API,
// https://aqicn.org/json-api/doc/. Each pollutant is reported under
// data.iaqi.<name>.v. Stations report an arbitrary subset of the twelve
// pollutants the model was trained on; absent readings are zero-filled.
//
// # Feature Order
//
// The regression model consumes a fixed-order vector:
//
//	pm25, pm10, no, no2, nox, nh3, co, so2, o3, benzene, toluene, xylene
//
// This matches the column order of the training dataset (PM2.5, PM10, NO,
// NO2, NOx, NH3, CO, SO2, O3, Benzene, Toluene, Xylene). Changing it
// invalidates every persisted model and scaler.
//
// # Zero Default
//
// A missing key, a JSON null, and a falsy value ("" / false / 0) all map to
// 0.0. A true zero reading is therefore indistinguishable from "no data";
// the model was trained on a dataset filled the same way.
//
// # AQI Categories
//
// Bands use inclusive upper bounds, following the US EPA scale:
//
//	<=50 Good | <=100 Moderate | <=150 Unhealthy for Sensitive Groups |
//	<=200 Unhealthy | <=300 Very Unhealthy | else Hazardous
package domain
