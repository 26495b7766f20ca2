package repository

import (
	"github.com/spf13/cast"

	"github.com/bozorplus/bozoradmin/internal/domain"
	"github.com/bozorplus/bozoradmin/internal/restclient"
)

// Products returns the product catalog repository. Products carry an
// image, so mutations go out as multipart.
func Products(api *restclient.Client) *Repository[domain.Product] {
	return New(api, Spec[domain.Product]{
		Path:       "product",
		ID:         func(p domain.Product) string { return p.ID },
		Multipart:  true,
		ImageField: "image",
		Required:   []string{"nameUz", "nameRu", "price", "category", "image"},
		Numeric:    []string{"price", "quantityLeft"},
		Defaults: func() map[string]string {
			return map[string]string{
				"nameUz": "", "nameRu": "", "price": "",
				"category": "", "unity": "", "description": "",
				"code": "", "article": "", "tgId": "", "quantityLeft": "",
			}
		},
		Draft: func(p domain.Product) map[string]string {
			return map[string]string{
				"nameUz":       p.NameUZ,
				"nameRu":       p.NameRU,
				"price":        cast.ToString(p.Price),
				"category":     p.CategoryID,
				"unity":        p.UnitID,
				"description":  p.Description,
				"code":         p.Code,
				"article":      p.Article,
				"tgId":         p.TgID,
				"quantityLeft": cast.ToString(p.QuantityLeft),
			}
		},
		Decode: func(m map[string]interface{}) (domain.Product, error) {
			var p domain.Product
			err := decodeInto(m, &p)
			return p, err
		},
		Encode: func(draft map[string]string) map[string]interface{} {
			body := map[string]interface{}{}
			put(body, draft, "nameUz", "name_uz")
			put(body, draft, "nameRu", "name_ru")
			putNumber(body, draft, "price", "price")
			put(body, draft, "category", "category")
			put(body, draft, "unity", "unity")
			put(body, draft, "description", "description")
			put(body, draft, "code", "code")
			put(body, draft, "article", "article")
			put(body, draft, "tgId", "tg_id")
			putNumber(body, draft, "quantityLeft", "quantity_left")
			return body
		},
	})
}

// Categories returns the category repository
func Categories(api *restclient.Client) *Repository[domain.Category] {
	return New(api, Spec[domain.Category]{
		Path:       "category",
		ID:         func(c domain.Category) string { return c.ID },
		Multipart:  true,
		ImageField: "image",
		Required:   []string{"nameUz", "nameRu"},
		Defaults: func() map[string]string {
			return map[string]string{"nameUz": "", "nameRu": ""}
		},
		Draft: func(c domain.Category) map[string]string {
			return map[string]string{"nameUz": c.NameUZ, "nameRu": c.NameRU}
		},
		Decode: func(m map[string]interface{}) (domain.Category, error) {
			var c domain.Category
			err := decodeInto(m, &c)
			return c, err
		},
		Encode: func(draft map[string]string) map[string]interface{} {
			body := map[string]interface{}{}
			put(body, draft, "nameUz", "name_uz")
			put(body, draft, "nameRu", "name_ru")
			return body
		},
	})
}

// Units returns the measurement unit repository. The backend calls
// this resource "unity".
func Units(api *restclient.Client) *Repository[domain.Unit] {
	return New(api, Spec[domain.Unit]{
		Path:     "unity",
		ID:       func(u domain.Unit) string { return u.ID },
		Required: []string{"nameUz", "nameRu"},
		Defaults: func() map[string]string {
			return map[string]string{"nameUz": "", "nameRu": ""}
		},
		Draft: func(u domain.Unit) map[string]string {
			return map[string]string{"nameUz": u.NameUZ, "nameRu": u.NameRU}
		},
		Decode: func(m map[string]interface{}) (domain.Unit, error) {
			var u domain.Unit
			err := decodeInto(m, &u)
			return u, err
		},
		Encode: func(draft map[string]string) map[string]interface{} {
			body := map[string]interface{}{}
			put(body, draft, "nameUz", "name_uz")
			put(body, draft, "nameRu", "name_ru")
			return body
		},
	})
}

// Banners returns the promo banner repository. Banners are image-only:
// the single required field is satisfied by the attached file.
func Banners(api *restclient.Client) *Repository[domain.Banner] {
	return New(api, Spec[domain.Banner]{
		Path:       "banner",
		ID:         func(b domain.Banner) string { return b.ID },
		Multipart:  true,
		ImageField: "banner",
		Required:   []string{"banner"},
		Defaults: func() map[string]string {
			return map[string]string{}
		},
		Draft: func(b domain.Banner) map[string]string {
			return map[string]string{}
		},
		Decode: func(m map[string]interface{}) (domain.Banner, error) {
			var b domain.Banner
			err := decodeInto(m, &b)
			return b, err
		},
		Encode: func(draft map[string]string) map[string]interface{} {
			return map[string]interface{}{}
		},
	})
}

// Users returns the account repository
func Users(api *restclient.Client) *Repository[domain.User] {
	return New(api, Spec[domain.User]{
		Path:     "user",
		ID:       func(u domain.User) string { return u.ID },
		Required: []string{"username", "email", "role"},
		Defaults: func() map[string]string {
			return map[string]string{
				"username": "", "email": "", "role": domain.RoleUser, "password": "",
			}
		},
		Draft: func(u domain.User) map[string]string {
			return map[string]string{
				"username": u.Username,
				"email":    u.Email,
				"role":     u.Role,
			}
		},
		Decode: func(m map[string]interface{}) (domain.User, error) {
			var u domain.User
			err := decodeInto(m, &u)
			return u, err
		},
		Encode: func(draft map[string]string) map[string]interface{} {
			body := map[string]interface{}{}
			put(body, draft, "username", "username")
			put(body, draft, "email", "email")
			put(body, draft, "role", "role")
			if v, ok := draft["password"]; ok && v != "" {
				body["password"] = v
			}
			return body
		},
	})
}
