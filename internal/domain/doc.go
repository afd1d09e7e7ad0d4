// Package domain models the operational state of the AIR4SPACE console:
// unit settings, mission feedback logs, planned activities, and the
// space-weather forecast feed consumed by the dashboard.
//
// # Date keys
//
// All date-keyed data (feedback logs, calendar operation status, the
// "today" filter on the forecast feed) joins on a canonical DateKey of the
// form YYYY-MM-DD, produced by [FormatDateKey] from the calendar fields of
// the given time. The key is a plain string so it can serve directly as a
// JSON object key in the persisted slices.
//
// # Feedback logs
//
// Mission feedback entries record the observed GNSS impact on a piece of
// equipment at a given HH:MM time. Impact levels use the operator-facing
// Korean labels 정상 (normal), 주의 (caution), and 위험 (danger). Entries
// are append-only: a [LogBook] bucket is never edited or compacted, and
// read paths sort a derived copy by time.
//
// # Forecast feed
//
// The published space-weather dataset is CSV text with a header row
// containing at least "time", "gnss_error", and "tec". Time values carry a
// full YYYY-MM-DD HH:MM prefix in KST, which is matched against today's
// DateKey. gnss_error is a GNSS positioning error rate in percent; tec is
// Total Electron Content in TECU, an ionospheric disturbance proxy.
//
// Field values are parsed leniently: the parser keeps everything as
// strings and numeric interpretation falls back to zero on malformed
// input, matching how the upstream sheet is maintained by hand.
//
// # Operation status
//
// The calendar severity feed maps DateKey to a level 1..4
// (정상/주의/경고/위험). It is read-only reference data for calendar
// annotation and is never written by this service.
package domain
