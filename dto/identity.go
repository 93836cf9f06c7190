package dto

import "encoding/xml"

// AadhaarQRData is the XML payload of the printed Aadhaar QR code.
type AadhaarQRData struct {
	XMLName     xml.Name `xml:"PrintLetterBarcodeData"`
	UID         string   `xml:"uid,attr"`
	Name        string   `xml:"name,attr"`
	Gender      string   `xml:"gender,attr"`
	YearOfBirth string   `xml:"yob,attr"`
	DateOfBirth string   `xml:"dob,attr"`
}

// GetDOB returns the full date of birth when present, else the year.
func (q *AadhaarQRData) GetDOB() string {
	if q.DateOfBirth != "" {
		return q.DateOfBirth
	}
	return q.YearOfBirth
}

// IsEmpty reports whether no identity fields were supplied.
func (id Identity) IsEmpty() bool {
	return id.FullName == "" && id.DateOfBirth == ""
}
