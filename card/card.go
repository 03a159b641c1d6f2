// Package card renders the shareable forms of a profile: a vCard contact and
// a QR code pointing at the profile page.
package card

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"clickshare/models"

	"github.com/emersion/go-vcard"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

var nonFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// VCard encodes the profile as a vCard 3.0 contact.
func VCard(profile *models.Profile) ([]byte, error) {
	c := make(vcard.Card)
	c.SetValue(vcard.FieldVersion, "3.0")
	c.SetValue(vcard.FieldFormattedName, profile.FullName)
	c.SetName(splitName(profile.FullName))
	setIfPresent(c, vcard.FieldTitle, profile.JobTitle)
	setIfPresent(c, vcard.FieldOrganization, profile.Company)
	if profile.Email != "" {
		c.Add(vcard.FieldEmail, &vcard.Field{
			Value:  profile.Email,
			Params: vcard.Params{vcard.ParamType: {"INTERNET"}},
		})
	}
	if profile.Phone != "" {
		c.Add(vcard.FieldTelephone, &vcard.Field{
			Value:  profile.Phone,
			Params: vcard.Params{vcard.ParamType: {vcard.TypeCell}},
		})
	}
	setIfPresent(c, vcard.FieldURL, profile.Website)
	setIfPresent(c, vcard.FieldNote, profile.Bio)

	var buf bytes.Buffer
	if err := vcard.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("encode vcard: %w", err)
	}
	return buf.Bytes(), nil
}

// VCardFilename turns "Jane Doe" into "Jane_Doe.vcf".
func VCardFilename(fullName string) string {
	name := nonFilenameChars.ReplaceAllString(strings.TrimSpace(fullName), "_")
	name = strings.Trim(name, "_")
	if name == "" {
		name = "contact"
	}
	return name + ".vcf"
}

// QRCodePNG renders content as a 256px PNG with high error correction.
func QRCodePNG(content string) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.High, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}

// ProfileURL is the public address of a profile. QR codes add src=qr so
// scans can be told apart from other visits.
func ProfileURL(baseURL, slug string, fromQR bool) string {
	u := strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(slug)
	if fromQR {
		u += "?src=qr"
	}
	return u
}

func setIfPresent(c vcard.Card, field, value string) {
	if value != "" {
		c.SetValue(field, value)
	}
}

// Everything up to the last word is treated as given names.
func splitName(fullName string) *vcard.Name {
	parts := strings.Fields(fullName)
	switch len(parts) {
	case 0:
		return &vcard.Name{}
	case 1:
		return &vcard.Name{GivenName: parts[0]}
	default:
		return &vcard.Name{
			GivenName:  strings.Join(parts[:len(parts)-1], " "),
			FamilyName: parts[len(parts)-1],
		}
	}
}
