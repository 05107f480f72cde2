package service

import (
	"context"
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/tealeg/xlsx"
)

var couponExportHeaders = []string{
	"ID", "Code", "DiscountType", "DiscountValue", "MinPurchase", "MaxDiscount",
	"ExpirationDate", "UsageLimit", "UsedCount", "Status", "CreatedAt", "UpdatedAt",
}

// Export writes every coupon to w as an xlsx workbook with a single
// "Coupons" sheet.
func (s *CouponService) Export(ctx context.Context, w io.Writer) error {
	coupons, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Coupons")
	if err != nil {
		return errors.Wrap(err, "add sheet")
	}

	header := sheet.AddRow()
	for _, h := range couponExportHeaders {
		header.AddCell().SetString(h)
	}

	for _, c := range coupons {
		row := sheet.AddRow()
		row.AddCell().SetString(c.ID)
		row.AddCell().SetString(c.Code)
		row.AddCell().SetString(string(c.DiscountType))
		row.AddCell().SetString(c.DiscountValue.StringFixed(2))
		row.AddCell().SetString(c.MinPurchase.StringFixed(2))
		if c.MaxDiscount != nil {
			row.AddCell().SetString(c.MaxDiscount.StringFixed(2))
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetString(c.ExpirationDate.Format(time.RFC3339))
		row.AddCell().SetInt(c.UsageLimit)
		row.AddCell().SetInt(c.UsedCount)
		row.AddCell().SetString(string(c.Status))
		row.AddCell().SetString(c.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetString(c.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	if err := file.Write(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}
	return nil
}
