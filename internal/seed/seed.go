// Package seed loads the demo catalog, events, offer and admin account.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/levelupgamer/levelup_shop/internal/models"
	pkg_hash "github.com/levelupgamer/levelup_shop/pkg/hash"
	"github.com/levelupgamer/levelup_shop/pkg/logging"
)

const (
	AdminUsername = "admin"
	AdminEmail    = "admin@local"
	AdminPassword = "admin123"
)

var santiago = time.FixedZone("CLT", -3*60*60)

func product(code, category, name, image string, price int64, stock int, description string) models.Product {
	return models.Product{
		Code:        code,
		Category:    category,
		Name:        name,
		Images:      pq.StringArray{image},
		Price:       decimal.NewFromInt(price),
		Stock:       stock,
		Description: description,
	}
}

func Products() []models.Product {
	return []models.Product{
		product("JM001", "Juegos de Mesa", "Catan", "catan.webp", 29990, 15,
			"Clásico juego de estrategia donde los jugadores compiten por colonizar y expandirse en la isla de Catan. Ideal para 3-4 jugadores."),
		product("JM002", "Juegos de Mesa", "Carcassonne", "ima005.webp", 24990, 12,
			"Juego de colocación de fichas alrededor de la fortaleza medieval de Carcassonne. Ideal para 2-5 jugadores."),
		product("AC001", "Accesorios", "Control Xbox Series X", "im006.webp", 59990, 8,
			"Botones mapeables y respuesta táctil mejorada. Compatible con consolas Xbox y PC."),
		product("PS001", "Consolas", "Play Station 5", "im007.webp", 549990, 5,
			"Consola de última generación de Sony con gráficos impresionantes y tiempos de carga ultrarrápidos."),
		product("HG001", "Audio", "Auriculares Gamer HyperX Cloud II", "im003.jpg", 79990, 20,
			"Sonido envolvente con micrófono desmontable y almohadillas de espuma viscoelástica."),
		product("GL001", "Computadoras", "Asus Rog Strix Scar 15 Gaming Laptop", "im002.jpg", 1299990, 3,
			"Laptop con Intel i7, NVIDIA RTX 3060 y pantalla de 15.6\" Full HD a 300Hz."),
		product("SG001", "Muebles", "Secretlab Titan Evo Frost", "im017.jpg", 349990, 7,
			"Silla gamer con soporte ergonómico y ajustes personalizables para sesiones prolongadas."),
		product("MG001", "Periféricos", "Mouse Gamer Logitech G502 HERO", "im014.webp", 49990, 25,
			"Sensor HERO 25K, 11 botones programables y retroiluminación RGB."),
		product("MP001", "Periféricos", "Mousepad Razer Goliathus Extended Chroma", "im015.webp", 29990, 18,
			"Mousepad extendido con iluminación RGB y base antideslizante."),
		product("TS001", "Merchandising", "Polera Level UP Gamer", "PoleraLevelUP.jpg", 19990, 30,
			"Polera de algodón 100% con diseño exclusivo de Level UP Gamer."),
		product("RL001", "Hardware", "Refrigeración Líquida Cougar Poseidon Elite ARGB 240", "im016.webp", 70990, 10,
			"Refrigeración líquida para CPU con radiador de 240mm e iluminación ARGB."),
		product("MG002", "Monitores", "Monitor Gamer Xiaomi G34, WQi, 180Hz", "im013.webp", 295990, 6,
			"Monitor ultrawide de 34\" WQHD a 180Hz con 3ms de respuesta."),
	}
}

func Events() []models.Event {
	return []models.Event{
		{
			Title:    "Torneo Level UP - Smash Ultimate",
			Date:     time.Date(2025, time.December, 4, 18, 0, 0, 0, santiago),
			Location: "Arena Central, Santiago",
			Image:    "/assets/imag/evento1.png",
			Tags:     pq.StringArray{"Torneo", "Presencial", "Competitivo"},
			Excerpt:  "Participa en el torneo regional de Smash Ultimate. Premios, streaming y mucha emoción.",
			Details:  "Regístrate con anticipación. Cupos limitados. Lleva tu control o usa uno de los de la casa.",
			Lat:      -33.4429,
			Lng:      -70.6518,
		},
		{
			Title:    "Charla: Desarrollo de videojuegos indie",
			Date:     time.Date(2025, time.November, 22, 16, 0, 0, 0, santiago),
			Location: "Auditorio Online (Zoom)",
			Image:    "/assets/imag/evento2.png",
			Tags:     pq.StringArray{"Charla", "Online", "Educación"},
			Excerpt:  "Aprende cómo lanzar tu primer juego indie con invitados expertos del rubro.",
			Details:  "Producción, marketing y monetización. Certificado digital para quienes completen la encuesta.",
			Lat:      -33.45694,
			Lng:      -70.64827,
		},
		{
			Title:    "Meetup Retro Gamers",
			Date:     time.Date(2025, time.October, 11, 20, 30, 0, 0, santiago),
			Location: "Bar Pixel",
			Image:    "/assets/imag/evento3.png",
			Tags:     pq.StringArray{"Social", "Presencial", "Retro"},
			Excerpt:  "Noche de juegos retro con torneos casuales y premios sorpresa.",
			Details:  "Trae tu consola retro o juega en nuestras máquinas. Entrada liberada los primeros 50.",
			Lat:      -33.4475,
			Lng:      -70.6731,
		},
	}
}

func Offers() []models.Offer {
	return []models.Offer{{
		Title:       "Oferta del Mes: Teclado Inalámbrico",
		Description: "El Teclado Multidispositivo Inalámbrico Inspire Smart TI707 redefine tu experiencia de juego con respuesta ultrarrápida.",
		Price:       decimal.NewFromInt(85990),
		Image:       "/assets/imag/Teclado_Inspire.jpg",
		Active:      true,
	}}
}

type Summary struct {
	Products     int
	Events       int
	Offers       int
	AdminCreated bool
}

// Run replaces products, events and offers with the demo data and creates
// the admin account when no user named admin exists.
func Run(ctx context.Context, db *gorm.DB) (Summary, error) {
	l := logging.FromContext(ctx).With("svc", "seed")
	var sum Summary

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, m := range []any{&models.Review{}, &models.Product{}, &models.Event{}, &models.Offer{}} {
			if err := all.Delete(m).Error; err != nil {
				return fmt.Errorf("clear %T: %w", m, err)
			}
		}

		products := Products()
		if err := tx.Create(&products).Error; err != nil {
			return fmt.Errorf("insert products: %w", err)
		}
		events := Events()
		if err := tx.Create(&events).Error; err != nil {
			return fmt.Errorf("insert events: %w", err)
		}
		offers := Offers()
		if err := tx.Create(&offers).Error; err != nil {
			return fmt.Errorf("insert offers: %w", err)
		}
		sum.Products, sum.Events, sum.Offers = len(products), len(events), len(offers)

		var existing models.User
		err := tx.Where("username = ?", AdminUsername).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hash, err := pkg_hash.HashPassword(AdminPassword)
		if err != nil {
			return err
		}
		admin := models.User{
			Username:     AdminUsername,
			Email:        AdminEmail,
			PasswordHash: hash,
			Birthdate:    time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
			Role:         models.RoleAdmin,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return fmt.Errorf("insert admin: %w", err)
		}
		sum.AdminCreated = true
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	l.Info("seed_complete", "products", sum.Products, "events", sum.Events, "offers", sum.Offers, "admin_created", sum.AdminCreated)
	return sum, nil
}
