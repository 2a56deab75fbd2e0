package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pribylovaa/telematics-auth/internal/models"
)

// resultJSON — вывод -json. Сроки жизни в секундах, как их отдаёт вендор.
type resultJSON struct {
	AccessToken      string           `json:"access_token"`
	RefreshToken     string           `json:"refresh_token,omitempty"`
	ExpiresIn        int64            `json:"expires_in"`
	RefreshExpiresIn int64            `json:"refresh_expires_in"`
	UserID           string           `json:"user_id,omitempty"`
	PartnerID        string           `json:"partner_id,omitempty"`
	TempPassword     bool             `json:"temp_password"`
	Token            models.TokenInfo `json:"token"`
}

// writeResult печатает access-токен или, с asJSON, весь результат входа.
func writeResult(w io.Writer, res *models.LoginResult, info models.TokenInfo, asJSON bool) error {
	if !asJSON {
		_, err := fmt.Fprintln(w, res.AccessToken)
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(resultJSON{
		AccessToken:      res.AccessToken,
		RefreshToken:     res.RefreshToken,
		ExpiresIn:        int64(res.AccessExpiresIn.Seconds()),
		RefreshExpiresIn: int64(res.RefreshExpiresIn.Seconds()),
		UserID:           res.UserID,
		PartnerID:        res.PartnerID,
		TempPassword:     res.TempPassword,
		Token:            info,
	})
}
