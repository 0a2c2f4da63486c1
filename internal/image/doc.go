// Package image knows the redroid tag scheme (supported Android majors and
// their lifecycle), renders the Dockerfile that layers installed components
// onto the base image and drives the external container tool that pulls and
// builds it.
package image
